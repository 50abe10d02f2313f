package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const requestTimeout = 15 * time.Second

// HTTPServer serves the booking API.
type HTTPServer struct {
	echo   *echo.Echo
	server *http.Server
	logger *zerolog.Logger
}

// NewHTTPServer wires routes and middleware. publicStore backs the per-IP limiter of the
// public routes and may be nil.
func NewHTTPServer(cfg config.APIConfig, h *Handler, publicStore domain.RateLimitStore, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(&httpLogger)

	e.Use(requestIDMiddleware())
	e.Use(accessLogMiddleware(&httpLogger))
	e.Use(recoverMiddleware(&httpLogger))
	e.Use(timeoutContext(requestTimeout))

	auth := NewTokenAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	secured := []echo.MiddlewareFunc{auth.Middleware(), newTenantLimiter(cfg.RateLimit).Middleware()}
	public := newPublicLimiter(publicStore, cfg.RateLimit, &httpLogger).Middleware()

	e.GET("/health", h.Health)

	g := e.Group("/api/bookings")
	g.GET("/time-slots", h.TimeSlots, secured...)
	g.GET("/staff-schedules", h.StaffSchedules, public)
	g.GET("/check-conflicts", h.CheckConflicts, secured...)
	g.POST("/recurring", h.CreateRecurringBooking, secured...)
	g.POST("/customer", h.CreateCustomerBooking, public)
	g.POST("", h.CreateBooking, secured...)
	g.GET("", h.ListBookings, secured...)
	g.GET("/export", h.ExportBookings, secured...)
	g.GET("/:id", h.GetBooking, secured...)
	g.PUT("/:id/status", h.UpdateBookingStatus, secured...)
	g.POST("/:id/cancel", h.CancelBooking, secured...)
	g.DELETE("/:id", h.DeleteBooking, secured...)

	return &HTTPServer{
		echo: e,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
