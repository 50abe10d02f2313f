package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/health", 200, 5*time.Millisecond)
		IncBookingsCreated("recurring", 4)
		IncBookingConflict()
		AddSlots(3, 1)
		IncNotification("sent")
	})
}
