package database

import (
	"context"
	"testing"
	"time"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationQueueCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.NotificationTask{
		TaskType:  "booking_created",
		BookingID: 100,
		Payload:   `{"test": true}`,
	}
	require.NoError(t, db.CreateNotificationTask(ctx, task))
	assert.Equal(t, TaskStatusPending, task.Status)

	tasks, err := db.GetPendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(100), tasks[0].BookingID)

	// Retry in the future hides the task until it is due.
	next := time.Now().UTC().Add(time.Hour)
	require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, TaskStatusRetry, "smtp down", &next))
	tasks, err = db.GetPendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, TaskStatusRetry, "smtp down", &past))
	tasks, err = db.GetPendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].RetryCount)
	require.NotNil(t, tasks[0].LastError)
	assert.Equal(t, "smtp down", *tasks[0].LastError)

	require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, TaskStatusFailed, "gave up", nil))
	failed, err := db.GetFailedNotificationTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.NotNil(t, failed[0].ProcessedAt)

	tasks, err = db.GetPendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
