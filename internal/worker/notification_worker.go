package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/metrics"
	"slotbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// notificationPayload is persisted in NotificationTask.Payload as JSON.
type notificationPayload struct {
	BookingID   int64  `json:"booking_id"`
	ClientID    int64  `json:"client_id"`
	CustomerID  *int64 `json:"customer_id,omitempty"`
	StaffID     *int64 `json:"staff_id,omitempty"`
	Customer    string `json:"customer,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
}

// NotificationWorker drains notification_queue. New tasks travel through Redis when it is
// configured, otherwise through a bounded in-memory channel; the table is polled as the
// backstop for both.
type NotificationWorker struct {
	store         domain.NotificationStore
	notifier      Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotificationTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	pollGrace     time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewNotificationWorker builds a worker with sane defaults. redisClient may be nil.
func NewNotificationWorker(store domain.NotificationStore, notifier Notifier, redisClient *redis.Client, retry RetryPolicy, cfg QueueKeys, logger *zerolog.Logger) *NotificationWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if cfg.Queue == "" {
		cfg.Queue = "notifications:queue"
	}
	if cfg.DeadLetter == "" {
		cfg.DeadLetter = "notifications:deadletter"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotificationWorker{
		store:         store,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotificationTask, models.NotificationQueueSize),
		redisQueueKey: cfg.Queue,
		deadLetterKey: cfg.DeadLetter,
		pollInterval:  2 * time.Second,
		pollGrace:     30 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// QueueKeys names the Redis lists used by the worker.
type QueueKeys struct {
	Queue      string
	DeadLetter string
}

// Enqueue persists the task, then hands it to Redis or the in-memory queue.
func (w *NotificationWorker) Enqueue(ctx context.Context, taskType string, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}

	payload := notificationPayload{
		BookingID:   booking.ID,
		ClientID:    booking.ClientID,
		CustomerID:  booking.CustomerID,
		StaffID:     booking.StaffID,
		Customer:    booking.CustomerName,
		ServiceName: booking.ServiceName,
		Date:        booking.BookingDate,
		Time:        booking.BookingTime,
		Status:      booking.Status,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	// The poller only sees the row after pollGrace, so a task delivered through the
	// queue is not picked up twice.
	grace := time.Now().UTC().Add(w.pollGrace)
	task := models.NotificationTask{
		TaskType:    taskType,
		BookingID:   booking.ID,
		Payload:     string(raw),
		Status:      database.TaskStatusPending,
		NextRetryAt: &grace,
	}
	if err := w.store.CreateNotificationTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notification task: %w", err)
	}

	if w.redis != nil {
		err := w.pushRedis(ctx, w.redisQueueKey, task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("Redis push failed, falling back to memory queue")
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("In-memory queue full, task left to polling")
	}
	return nil
}

// Start runs until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	w.reportDeadLetters(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.store.GetPendingNotificationTasks(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("Fetch pending notification tasks failed")
			}
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *NotificationWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *NotificationWorker) tryLocalQueue() (models.NotificationTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotificationTask{}, false
	}
}

func (w *NotificationWorker) tryRedis(ctx context.Context) (models.NotificationTask, bool) {
	if w.redis == nil {
		return models.NotificationTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("Redis BRPOP failed")
		}
		return models.NotificationTask{}, false
	}
	if len(res) != 2 {
		return models.NotificationTask{}, false
	}
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Warn().Err(err).Msg("Decode redis task failed")
		return models.NotificationTask{}, false
	}
	return task, true
}

func (w *NotificationWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	var payload notificationPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	err := w.notifier.Notify(ctx, Notification{
		TaskID:      task.ID,
		Type:        task.TaskType,
		BookingID:   payload.BookingID,
		ClientID:    payload.ClientID,
		CustomerID:  payload.CustomerID,
		StaffID:     payload.StaffID,
		Customer:    payload.Customer,
		ServiceName: payload.ServiceName,
		Date:        payload.Date,
		Time:        payload.Time,
		Status:      payload.Status,
	})
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncNotification("sent")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark completed failed")
	}
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	next := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	metrics.IncNotification("retried")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark retry failed")
	}
}

func (w *NotificationWorker) failTask(ctx context.Context, task *models.NotificationTask, cause error) {
	metrics.IncNotification("dead")
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("retries", task.RetryCount).Msg("Notification task failed")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark task failed")
	}
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Dead letter push failed")
		}
	}
}

func (w *NotificationWorker) pushRedis(ctx context.Context, key string, task models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

// reportDeadLetters logs tasks left failed by earlier runs. They are never retried
// automatically.
func (w *NotificationWorker) reportDeadLetters(ctx context.Context) int {
	failed, err := w.store.GetFailedNotificationTasks(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Fetch failed notification tasks failed")
		return 0
	}
	if len(failed) == 0 {
		return 0
	}
	ev := w.logger.Warn().Int("count", len(failed)).Int64("latest_task_id", failed[0].ID)
	if failed[0].LastError != nil {
		ev = ev.Str("latest_error", *failed[0].LastError)
	}
	ev.Msg("Failed notification tasks need attention")
	return len(failed)
}
