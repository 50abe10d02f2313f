package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/schedule"

	"github.com/rs/zerolog"
)

// Sources label how a booking came in.
const (
	SourceStaff     = "staff"
	SourceCustomer  = "customer"
	SourceRecurring = "recurring"
)

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	notifications  domain.NotificationQueue
	maxOccurrences int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, notifications domain.NotificationQueue, maxOccurrences int, logger *zerolog.Logger) *BookingService {
	if maxOccurrences <= 0 {
		maxOccurrences = models.DefaultMaxRecurringOccurrences
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		notifications:  notifications,
		maxOccurrences: maxOccurrences,
		logger:         logger,
	}
}

// CreateBooking books a single appointment for the client. Duration and price fall back
// to the service's values.
func (s *BookingService) CreateBooking(ctx context.Context, clientID int64, req models.BookingRequest) (*models.Booking, error) {
	var errs ValidationErrors
	if _, err := parseDate("booking_date", req.BookingDate); err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	at, err := parseClock("booking_time", req.BookingTime)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	errs = append(errs, checkAmounts(req.ServiceID, req.Duration, req.Price)...)
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	svc, err := s.resolveRefs(ctx, clientID, req.ServiceID, req.StaffID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	booking := newBooking(clientID, svc, req.CustomerID, req.StaffID, req.BookingDate, at, req.Duration, req.Price, req.Notes)
	if err := s.insert(ctx, booking); err != nil {
		return nil, err
	}
	return s.afterCreate(ctx, booking, SourceStaff), nil
}

// CreateCustomerBooking is the public self-service path. The customer is matched by phone
// within the client and created on first visit.
func (s *BookingService) CreateCustomerBooking(ctx context.Context, req models.CustomerBookingRequest) (*models.Booking, error) {
	var errs ValidationErrors
	if req.ClientID <= 0 {
		errs = append(errs, invalid("client_id", "is required"))
	}
	if req.ServiceID <= 0 {
		errs = append(errs, invalid("service_id", "is required"))
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		errs = append(errs, invalid("customer_name", "is required"))
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		errs = append(errs, invalid("customer_phone", "is required"))
	}
	if _, err := parseDate("booking_date", req.BookingDate); err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	at, err := parseClock("booking_time", req.BookingTime)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	svc, err := s.resolveRefs(ctx, req.ClientID, req.ServiceID, req.StaffID, nil)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.FindOrCreateCustomer(ctx, req.ClientID,
		strings.TrimSpace(req.CustomerName), strings.TrimSpace(req.CustomerPhone), strings.TrimSpace(req.CustomerEmail))
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	customerID := customer.ID
	booking := newBooking(req.ClientID, svc, &customerID, req.StaffID, req.BookingDate, at, 0, nil, req.Notes)
	if err := s.insert(ctx, booking); err != nil {
		return nil, err
	}
	return s.afterCreate(ctx, booking, SourceCustomer), nil
}

// CreateRecurringBooking materializes the whole series in one transaction. Occurrences
// share everything but the date; the first one is the parent of the rest.
func (s *BookingService) CreateRecurringBooking(ctx context.Context, clientID int64, req models.RecurringBookingRequest) ([]*models.Booking, error) {
	var errs ValidationErrors
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	end, err := parseDate("recurring_end_date", req.RecurringEndDate)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	at, err := parseClock("start_time", req.StartTime)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	pattern, err := schedule.ParsePattern(req.RecurringPattern)
	if err != nil {
		errs = append(errs, invalid("recurring_pattern", "must be one of weekly, biweekly, monthly"))
	}
	errs = append(errs, checkAmounts(req.ServiceID, req.Duration, req.Price)...)
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	dates, err := schedule.Occurrences(start, end, pattern, s.maxOccurrences)
	switch {
	case errors.Is(err, schedule.ErrEndBeforeStart):
		return nil, invalid("recurring_end_date", "must not be before start_date")
	case errors.Is(err, schedule.ErrTooManyOccurrences):
		return nil, invalid("recurring_end_date", "series would exceed %d occurrences", s.maxOccurrences)
	case err != nil:
		return nil, invalid("recurring_pattern", "%s", err.Error())
	}

	svc, err := s.resolveRefs(ctx, clientID, req.ServiceID, req.StaffID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	patternName := string(pattern)
	endDate := end.Format(models.DateLayout)
	series := make([]*models.Booking, 0, len(dates))
	for _, d := range dates {
		b := newBooking(clientID, svc, req.CustomerID, req.StaffID, d.Format(models.DateLayout), at, req.Duration, req.Price, req.Notes)
		b.IsRecurring = true
		b.RecurringPattern = &patternName
		b.RecurringEndDate = &endDate
		series = append(series, b)
	}

	if err := s.repo.CreateSeries(ctx, series); err != nil {
		err = translate(err)
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}
	metrics.IncBookingsCreated(SourceRecurring, len(series))

	created := make([]*models.Booking, 0, len(series))
	for _, b := range series {
		created = append(created, s.reload(ctx, b))
	}

	parent := created[0]
	s.publishEvent(events.EventRecurringSeriesCreated, parent, func(p *events.BookingEventPayload) {
		p.Occurrences = len(created)
		p.Source = SourceRecurring
	})
	s.enqueueNotification(ctx, events.EventRecurringSeriesCreated, parent)

	s.logger.Info().
		Int64("client_id", clientID).
		Int64("parent_booking_id", parent.ID).
		Int("occurrences", len(created)).
		Str("pattern", patternName).
		Msg("Recurring series created")
	return created, nil
}

func (s *BookingService) GetBooking(ctx context.Context, clientID, id int64) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, clientID, id)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, clientID int64, filter models.BookingFilter) ([]*models.Booking, error) {
	var errs ValidationErrors
	if filter.From != "" {
		if _, err := parseDate("from", filter.From); err != nil {
			errs = append(errs, err.(*ValidationError))
		}
	}
	if filter.To != "" {
		if _, err := parseDate("to", filter.To); err != nil {
			errs = append(errs, err.(*ValidationError))
		}
	}
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		errs = append(errs, invalid("status", "unknown status %q", filter.Status))
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookings(ctx, clientID, filter)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) UpdateBookingStatus(ctx context.Context, clientID, id int64, status string) (*models.Booking, error) {
	if !models.IsValidStatus(status) {
		return nil, invalid("status", "must be one of pending, confirmed, completed, cancelled")
	}

	before, err := s.repo.GetBooking(ctx, clientID, id)
	if err != nil {
		return nil, translate(err)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, clientID, id, status)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	eventType := events.EventBookingStatusChanged
	if status == models.StatusCancelled {
		eventType = events.EventBookingCancelled
	}
	s.publishEvent(eventType, updated, func(p *events.BookingEventPayload) {
		p.PreviousStatus = before.Status
	})
	s.enqueueNotification(ctx, eventType, updated)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, clientID, id int64) (*models.Booking, error) {
	return s.UpdateBookingStatus(ctx, clientID, id, models.StatusCancelled)
}

func (s *BookingService) DeleteBooking(ctx context.Context, clientID, id int64) error {
	b, err := s.repo.GetBooking(ctx, clientID, id)
	if err != nil {
		return translate(err)
	}
	if err := s.repo.DeleteBooking(ctx, clientID, id); err != nil {
		return translate(err)
	}
	s.publishEvent(events.EventBookingDeleted, b, nil)
	return nil
}

// resolveRefs checks that the service, staff member and customer all belong to the client.
func (s *BookingService) resolveRefs(ctx context.Context, clientID, serviceID int64, staffID, customerID *int64) (*models.Service, error) {
	svc, err := s.repo.GetService(ctx, clientID, serviceID)
	if err != nil {
		return nil, translate(err)
	}
	if staffID != nil {
		if _, err := s.repo.GetStaff(ctx, clientID, *staffID); err != nil {
			return nil, translate(err)
		}
	}
	if customerID != nil {
		if _, err := s.repo.GetCustomer(ctx, clientID, *customerID); err != nil {
			return nil, translate(err)
		}
	}
	return svc, nil
}

func (s *BookingService) insert(ctx context.Context, b *models.Booking) error {
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		err = translate(err)
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
		}
		return err
	}
	return nil
}

func (s *BookingService) afterCreate(ctx context.Context, b *models.Booking, source string) *models.Booking {
	metrics.IncBookingsCreated(source, 1)
	created := s.reload(ctx, b)
	s.publishEvent(events.EventBookingCreated, created, func(p *events.BookingEventPayload) {
		p.Source = source
	})
	s.enqueueNotification(ctx, events.EventBookingCreated, created)
	return created
}

// reload re-reads b to pick up joined display names. The insert already succeeded, so a
// failed read falls back to b.
func (s *BookingService) reload(ctx context.Context, b *models.Booking) *models.Booking {
	fresh, err := s.repo.GetBooking(ctx, b.ClientID, b.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("Reload after insert failed")
		return b
	}
	return fresh
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, decorate func(*events.BookingEventPayload)) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       b.ID,
		ClientID:        b.ClientID,
		ServiceID:       b.ServiceID,
		StaffID:         b.StaffID,
		CustomerID:      b.CustomerID,
		BookingDate:     b.BookingDate,
		BookingTime:     b.BookingTime,
		Duration:        b.Duration,
		Status:          b.Status,
		ParentBookingID: b.ParentBookingID,
	}
	if decorate != nil {
		decorate(&payload)
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueNotification(ctx context.Context, taskType string, b *models.Booking) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Enqueue(ctx, taskType, b); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Str("task", taskType).Msg("notification enqueue error")
	}
}

func newBooking(clientID int64, svc *models.Service, customerID, staffID *int64, date string, at schedule.Clock, duration int, price *float64, notes string) *models.Booking {
	b := &models.Booking{
		ClientID:      clientID,
		ServiceID:     svc.ID,
		CustomerID:    customerID,
		StaffID:       staffID,
		BookingDate:   date,
		BookingTime:   at.String(),
		Duration:      svc.Duration,
		Price:         svc.Price,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		Notes:         notes,
	}
	if duration > 0 {
		b.Duration = duration
	}
	if price != nil {
		b.Price = *price
	}
	if b.Duration <= 0 {
		b.Duration = models.DefaultSlotDuration
	}
	return b
}

func checkAmounts(serviceID int64, duration int, price *float64) ValidationErrors {
	var errs ValidationErrors
	if serviceID <= 0 {
		errs = append(errs, invalid("service_id", "is required"))
	}
	if duration < 0 {
		errs = append(errs, invalid("duration", "must not be negative"))
	}
	if price != nil && *price < 0 {
		errs = append(errs, invalid("price", "must not be negative"))
	}
	return errs
}
