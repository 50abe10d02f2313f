package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func formatDates(ds []time.Time) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

func TestOccurrences_Weekly(t *testing.T) {
	dates, err := Occurrences(day("2024-01-01"), day("2024-01-22"), Weekly, 104)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}, formatDates(dates))
}

func TestOccurrences_Biweekly(t *testing.T) {
	dates, err := Occurrences(day("2024-01-01"), day("2024-02-11"), Biweekly, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-15", "2024-01-29"}, formatDates(dates))
}

func TestOccurrences_MonthlyClampsToMonthEnd(t *testing.T) {
	dates, err := Occurrences(day("2024-01-31"), day("2024-04-30"), Monthly, 104)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, formatDates(dates))
}

func TestOccurrences_MonthlyAcrossYear(t *testing.T) {
	dates, err := Occurrences(day("2023-11-30"), day("2024-03-01"), Monthly, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-11-30", "2023-12-30", "2024-01-30", "2024-02-29"}, formatDates(dates))
}

func TestOccurrences_SingleDay(t *testing.T) {
	dates, err := Occurrences(day("2024-05-05"), day("2024-05-05"), Weekly, 1)
	require.NoError(t, err)
	assert.Len(t, dates, 1)
}

func TestOccurrences_Errors(t *testing.T) {
	_, err := Occurrences(day("2024-02-01"), day("2024-01-01"), Weekly, 104)
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	_, err = Occurrences(day("2024-01-01"), day("2030-01-01"), Weekly, 104)
	assert.ErrorIs(t, err, ErrTooManyOccurrences)

	_, err = Occurrences(day("2024-01-01"), day("2024-02-01"), Pattern("daily"), 104)
	assert.ErrorIs(t, err, ErrUnknownPattern)
}

func TestOccurrences_LimitBoundary(t *testing.T) {
	// 2024-01-01 + 3 weeks gives exactly 4 dates.
	_, err := Occurrences(day("2024-01-01"), day("2024-01-22"), Weekly, 4)
	assert.NoError(t, err)
	_, err = Occurrences(day("2024-01-01"), day("2024-01-22"), Weekly, 3)
	assert.ErrorIs(t, err, ErrTooManyOccurrences)
}

func TestParsePattern(t *testing.T) {
	for _, s := range []string{"weekly", "biweekly", "monthly"} {
		p, err := ParsePattern(s)
		require.NoError(t, err)
		assert.Equal(t, Pattern(s), p)
	}
	_, err := ParsePattern("yearly")
	assert.ErrorIs(t, err, ErrUnknownPattern)
}
