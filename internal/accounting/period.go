package accounting

import (
	"time"

	"github.com/spec-kit/erp-desk/internal/domain"
)

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// YearToDateBounds returns [January 1st, today].
func YearToDateBounds(today time.Time) (time.Time, time.Time) {
	today = Date(today)
	return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), today
}

// CurrentPeriodBounds returns the open declaration period ending today: the
// current month for monthly filers, the current calendar quarter for quarterly ones.
// freq must be valid; companies are validated on every write.
func CurrentPeriodBounds(freq domain.UrssafFrequency, today time.Time) (time.Time, time.Time) {
	today = Date(today)
	if freq == domain.UrssafMonthly {
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), today
	}
	return quarterStart(today), today
}

func quarterStart(today time.Time) time.Time {
	q := (int(today.Month()) - 1) / 3
	return time.Date(today.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, today.Location())
}
