package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	existing := Reservation{Start: MustClock("10:00"), Duration: 30}

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"touching before", "09:30", "10:00", false},
		{"exact", "10:00", "10:30", true},
		{"partial", "10:15", "10:45", true},
		{"touching after", "10:30", "11:00", false},
		{"covering", "09:00", "12:00", true},
		{"inside", "10:10", "10:20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(MustClock(tt.start), MustClock(tt.end), existing.Start, existing.End())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverlaps_ZeroDuration(t *testing.T) {
	zero := Reservation{Start: MustClock("10:00"), Duration: 0}
	assert.False(t, Overlaps(MustClock("09:30"), MustClock("10:30"), zero.Start, zero.End()))
	assert.False(t, Overlaps(MustClock("10:00"), MustClock("10:00"), MustClock("09:00"), MustClock("11:00")))
}

func TestConflictsAndIsFree(t *testing.T) {
	res := []Reservation{
		{Start: MustClock("09:00"), Duration: 60},
		{Start: MustClock("11:00"), Duration: 30},
		{Start: MustClock("11:15"), Duration: 30},
	}

	assert.Equal(t, []int{1, 2}, Conflicts(MustClock("11:00"), MustClock("11:30"), res))
	assert.Empty(t, Conflicts(MustClock("10:00"), MustClock("11:00"), res))
	assert.True(t, IsFree(MustClock("10:00"), MustClock("11:00"), res))
	assert.False(t, IsFree(MustClock("09:45"), MustClock("10:15"), res))
}
