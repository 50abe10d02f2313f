package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownPattern     = errors.New("unknown recurring pattern")
	ErrEndBeforeStart     = errors.New("recurring end date is before start date")
	ErrTooManyOccurrences = errors.New("recurring series exceeds the occurrence limit")
)

// Pattern is a recurrence step.
type Pattern string

const (
	Weekly   Pattern = "weekly"
	Biweekly Pattern = "biweekly"
	Monthly  Pattern = "monthly"
)

// ParsePattern accepts weekly, biweekly and monthly.
func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case Weekly, Biweekly, Monthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPattern, s)
}

// Occurrences lists the series dates from start through end inclusive. Monthly steps are
// taken from the anchor day of start and clamped to the last day of the target month,
// so 01-31 gives 02-29, 03-31, 04-30. A series longer than limit is rejected whole;
// limit <= 0 disables the cap.
func Occurrences(start, end time.Time, p Pattern, limit int) ([]time.Time, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}

	var dates []time.Time
	for n := 0; ; n++ {
		d, err := nthOccurrence(start, p, n)
		if err != nil {
			return nil, err
		}
		if d.After(end) {
			break
		}
		if limit > 0 && len(dates) == limit {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyOccurrences, limit)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func nthOccurrence(start time.Time, p Pattern, n int) (time.Time, error) {
	switch p {
	case Weekly:
		return start.AddDate(0, 0, 7*n), nil
	case Biweekly:
		return start.AddDate(0, 0, 14*n), nil
	case Monthly:
		return addMonthsClamped(start, n), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPattern, string(p))
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
