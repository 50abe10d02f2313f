package api

import (
	"errors"
	"net/http"

	"slotbook/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// errorHandler maps the service error taxonomy to status codes.
func errorHandler(logger *zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := describe(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("route", c.Path()).
				Msg("Request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			logger.Error().Err(err).Msg("Write error response")
		}
	}
}

func describe(err error) (int, Response) {
	if fields, isValidation := service.Fields(err); isValidation {
		out := make([]FieldError, 0, len(fields))
		for _, f := range fields {
			out = append(out, FieldError{Field: f.Field, Message: f.Message})
		}
		return http.StatusBadRequest, Response{Message: "validation failed", Errors: out}
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, Response{Message: err.Error()}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, Response{Message: err.Error()}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, isString := he.Message.(string)
		if !isString {
			msg = http.StatusText(he.Code)
		}
		return he.Code, Response{Message: msg}
	}

	return http.StatusInternalServerError, Response{
		Message: "internal server error",
		Errors:  []FieldError{{Message: err.Error()}},
	}
}
