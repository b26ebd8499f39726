package billing

import (
	"testing"

	"github.com/spec-kit/erp-desk/internal/domain"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		kind domain.DocumentKind
		year int
		seq  int
		want string
	}{
		{domain.DocumentQuote, 2025, 1, "DEV-2025-0001"},
		{domain.DocumentInvoice, 2025, 42, "FAC-2025-0042"},
		{domain.DocumentInvoice, 2026, 10000, "FAC-2026-10000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.kind, tt.year, tt.seq); got != tt.want {
			t.Errorf("FormatNumber(%s, %d, %d) = %q, want %q", tt.kind, tt.year, tt.seq, got, tt.want)
		}
	}
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		number string
		want   int
		ok     bool
	}{
		{"FAC-2025-0007", 7, true},
		{"FAC-2025-10000", 10000, true},
		{"FAC-2024-0007", 0, false},
		{"DEV-2025-0007", 0, false},
		{"FAC-2025-abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseSequence(tt.number, domain.DocumentInvoice, 2025)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSequence(%q) = %d, %v; want %d, %v", tt.number, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNextSequenceComparesNumerically(t *testing.T) {
	numbers := []string{"FAC-2025-9999", "FAC-2025-10000", "FAC-2025-0002", "FAC-2024-20000", "DEV-2025-50000"}
	if got := NextSequence(numbers, domain.DocumentInvoice, 2025, 0); got != 10001 {
		t.Fatalf("NextSequence = %d, want 10001", got)
	}
	if got := NextSequence(nil, domain.DocumentInvoice, 2025, 0); got != 1 {
		t.Fatalf("NextSequence on empty = %d, want 1", got)
	}
	if got := NextSequence([]string{"FAC-2025-0003"}, domain.DocumentInvoice, 2025, 8); got != 9 {
		t.Fatalf("NextSequence with floor = %d, want 9", got)
	}
}
