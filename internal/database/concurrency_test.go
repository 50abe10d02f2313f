package database

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	logger := zerolog.New(io.Discard)
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	f := seed(t, db)
	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.CreateBooking(ctx, f.booking("2024-03-04", "10:00", 60))
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotTaken)
	}
	assert.Equal(t, 1, successCount, "only one booking may win the slot")

	active, err := db.GetActiveBookings(ctx, f.client.ID, &f.staff.ID, "2024-03-04")
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, models.StatusPending, active[0].Status)
}
