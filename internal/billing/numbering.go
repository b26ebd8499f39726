package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// SequenceWidth is the zero-padded width of the numeric suffix.
const SequenceWidth = 4

// NumberPrefix returns "PREFIX-YYYY-" for a kind and year.
func NumberPrefix(kind domain.DocumentKind, year int) string {
	return fmt.Sprintf("%s-%d-", kind.Prefix(), year)
}

// FormatNumber renders PREFIX-YYYY-NNNN. Sequences past 9999 keep growing in width.
func FormatNumber(kind domain.DocumentKind, year, seq int) string {
	return fmt.Sprintf("%s%0*d", NumberPrefix(kind, year), SequenceWidth, seq)
}

// ParseSequence extracts the numeric suffix of number when it belongs to
// (kind, year).
func ParseSequence(number string, kind domain.DocumentKind, year int) (int, bool) {
	prefix := NumberPrefix(kind, year)
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// NextSequence returns one past the highest sequence among numbers for (kind, year),
// compared numerically, and never less than floor+1.
func NextSequence(numbers []string, kind domain.DocumentKind, year, floor int) int {
	highest := floor
	for _, n := range numbers {
		if seq, ok := ParseSequence(n, kind, year); ok && seq > highest {
			highest = seq
		}
	}
	return highest + 1
}
