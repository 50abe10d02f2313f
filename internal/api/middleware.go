package api

import (
	"time"

	"slotbook/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

func requestIDMiddleware() echo.MiddlewareFunc {
	return echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// accessLogMiddleware writes one line per request and feeds the HTTP metrics.
func accessLogMiddleware(logger *zerolog.Logger) echo.MiddlewareFunc {
	return echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRoutePath: true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			route := v.RoutePath
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(route, v.Status, v.Latency)

			ev := logger.Info()
			if v.Status >= 500 {
				ev = logger.Error()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("route", route).
				Str("uri", v.URI).
				Str("remote_ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("duration", v.Latency).
				Msg("http request")
			return nil
		},
	})
}

func recoverMiddleware(logger *zerolog.Logger) echo.MiddlewareFunc {
	return echoMw.RecoverWithConfig(echoMw.RecoverConfig{
		DisablePrintStack: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	})
}

func timeoutContext(d time.Duration) echo.MiddlewareFunc {
	return echoMw.ContextTimeoutWithConfig(echoMw.ContextTimeoutConfig{Timeout: d})
}
