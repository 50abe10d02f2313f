package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", 540, false},
		{"9:05", 545, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"17:30:00", 1050, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12:5", 0, true},
		{"-1:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"10:00:99", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidClock, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "09:00", MustClock("9:00").String())
	assert.Equal(t, "17:30", MustClock("17:00").Add(30).String())
	assert.Panics(t, func() { MustClock("bogus") })
}
