package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"slotbook/internal/export"
	"slotbook/internal/models"
	"slotbook/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Pinger reports storage liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	bookings     *service.BookingService
	availability *service.AvailabilityService
	exporter     *export.Exporter
	db           Pinger
	logger       *zerolog.Logger
}

func NewHandler(bookings *service.BookingService, availability *service.AvailabilityService, exporter *export.Exporter, db Pinger, logger *zerolog.Logger) *Handler {
	return &Handler{
		bookings:     bookings,
		availability: availability,
		exporter:     exporter,
		db:           db,
		logger:       logger,
	}
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		h.logger.Error().Err(err).Msg("Health check: database ping failed")
		return c.JSON(http.StatusServiceUnavailable, Response{Message: "database unavailable"})
	}
	return success(c, http.StatusOK, "", map[string]string{"status": "ok"})
}

func (h *Handler) TimeSlots(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	var errs service.ValidationErrors
	serviceID := queryInt64(c, "service_id", &errs)
	staffID := queryOptionalInt64(c, "staff_id", &errs)
	if len(errs) > 0 {
		return errs
	}

	slots, err := h.availability.TimeSlots(c.Request().Context(), clientID, c.QueryParam("date"), serviceID, staffID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", slots)
}

// StaffSchedules is public: the client is named in the query.
func (h *Handler) StaffSchedules(c echo.Context) error {
	var errs service.ValidationErrors
	clientID := queryInt64(c, "client_id", &errs)
	if len(errs) > 0 {
		return errs
	}

	schedules, err := h.availability.StaffSchedules(c.Request().Context(), clientID, c.QueryParam("date"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", schedules)
}

func (h *Handler) CheckConflicts(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	var errs service.ValidationErrors
	duration := int(queryInt64(c, "duration", &errs))
	staffID := queryOptionalInt64(c, "staff_id", &errs)
	if len(errs) > 0 {
		return errs
	}

	report, err := h.availability.CheckConflicts(c.Request().Context(), clientID, c.QueryParam("date"), c.QueryParam("time"), duration, staffID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", report)
}

func (h *Handler) CreateBooking(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	var req models.BookingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), clientID, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "booking created", booking)
}

func (h *Handler) CreateCustomerBooking(c echo.Context) error {
	var req models.CustomerBookingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.CreateCustomerBooking(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "booking created", booking)
}

func (h *Handler) CreateRecurringBooking(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	var req models.RecurringBookingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	series, err := h.bookings.CreateRecurringBooking(c.Request().Context(), clientID, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, fmt.Sprintf("created %d bookings", len(series)), series)
}

func (h *Handler) ListBookings(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	var errs service.ValidationErrors
	filter := models.BookingFilter{
		From:    c.QueryParam("from"),
		To:      c.QueryParam("to"),
		StaffID: queryOptionalInt64(c, "staff_id", &errs),
		Status:  c.QueryParam("status"),
	}
	if len(errs) > 0 {
		return errs
	}

	bookings, err := h.bookings.ListBookings(c.Request().Context(), clientID, filter)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", bookings)
}

func (h *Handler) ExportBookings(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	from, to := c.QueryParam("from"), c.QueryParam("to")

	path, err := h.exporter.Export(c.Request().Context(), clientID, from, to)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			h.logger.Warn().Err(err).Str("file_path", path).Msg("Remove export file")
		}
	}()
	return c.Attachment(path, export.FileName(clientID, from, to))
}

func (h *Handler) GetBooking(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	booking, err := h.bookings.GetBooking(c.Request().Context(), clientID, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", booking)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateBookingStatus(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request().Context(), clientID, id, req.Status)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "status updated", booking)
}

func (h *Handler) CancelBooking(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	booking, err := h.bookings.CancelBooking(c.Request().Context(), clientID, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "booking cancelled", booking)
}

func (h *Handler) DeleteBooking(c echo.Context) error {
	clientID, err := tenantID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.bookings.DeleteBooking(c.Request().Context(), clientID, id); err != nil {
		return err
	}
	return success(c, http.StatusOK, "booking deleted", nil)
}

func bindBody(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return &service.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func queryInt64(c echo.Context, name string, errs *service.ValidationErrors) int64 {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		*errs = append(*errs, &service.ValidationError{Field: name, Message: "is required"})
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*errs = append(*errs, &service.ValidationError{Field: name, Message: "must be an integer"})
		return 0
	}
	return v
}

func queryOptionalInt64(c echo.Context, name string, errs *service.ValidationErrors) *int64 {
	if strings.TrimSpace(c.QueryParam(name)) == "" {
		return nil
	}
	v := queryInt64(c, name, errs)
	return &v
}
