package worker

import (
	"context"

	"github.com/rs/zerolog"
)

// Notification is what a Notifier delivers for one booking event.
type Notification struct {
	TaskID      int64  `json:"task_id"`
	Type        string `json:"type"`
	BookingID   int64  `json:"booking_id"`
	ClientID    int64  `json:"client_id"`
	CustomerID  *int64 `json:"customer_id,omitempty"`
	StaffID     *int64 `json:"staff_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Customer    string `json:"customer,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes each notification as a structured log line. No message leaves the process.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	ev := n.logger.Info().
		Int64("task_id", msg.TaskID).
		Str("type", msg.Type).
		Int64("booking_id", msg.BookingID).
		Int64("client_id", msg.ClientID).
		Str("date", msg.Date).
		Str("time", msg.Time).
		Str("status", msg.Status)
	if msg.Customer != "" {
		ev = ev.Str("customer", msg.Customer)
	}
	if msg.ServiceName != "" {
		ev = ev.Str("service", msg.ServiceName)
	}
	ev.Msg("Notification")
	return nil
}
