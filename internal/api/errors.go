// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/format"
	"github.com/starmap-generator/backend/internal/geometry"
	"github.com/starmap-generator/backend/internal/history"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/render"
	"github.com/starmap-generator/backend/internal/session"
	"github.com/starmap-generator/backend/internal/storage"
)

var apiLog = logging.Module("api")

// ShowErrorDetails controls whether unexpected errors carry their message
// in the Details field.
var ShowErrorDetails = true

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewInvalidCanvasSpecError creates a 400 error for unusable canvas dimensions
func NewInvalidCanvasSpecError(cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "INVALID_CANVAS_SPEC",
		Message: "canvas width and height must be positive and within limits",
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInvalidCoordinatesError creates a 400 error for unparseable coordinates
func NewInvalidCoordinatesError(cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "INVALID_COORDINATES",
		Message: "please enter valid coordinates",
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewUpstreamError creates a 502 error for a failing external service
func NewUpstreamError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadGateway,
		Code:    "UPSTREAM_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// fromDomainError converts package sentinel errors into API errors.
// id names the session or file the request was about.
func fromDomainError(err error, id string) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, session.ErrSessionNotFound):
		return NewNotFoundError("session", id)
	case errors.Is(err, storage.ErrFileNotFound):
		return NewNotFoundError("file", id)
	case errors.Is(err, history.ErrSettingsNotFound):
		return NewNotFoundError("settings", id)
	case errors.Is(err, session.ErrTooManySessions):
		return NewServiceUnavailableError("too many active canvas sessions")
	case errors.Is(err, models.ErrInvalidCanvasSpec), errors.Is(err, render.ErrCanvasTooLarge):
		return NewInvalidCanvasSpecError(err)
	case errors.Is(err, format.ErrInvalidCoordinates):
		return NewInvalidCoordinatesError(err)
	case errors.Is(err, geometry.ErrInvalidRadius):
		e := NewValidationError("settings.radiusPercent")
		e.Details = err.Error()
		return e
	case errors.Is(err, models.ErrInvalidTextPosition):
		e := NewValidationError("texts.position")
		e.Details = err.Error()
		return e
	case errors.Is(err, format.ErrInvalidDate):
		e := NewValidationError("date")
		e.Details = err.Error()
		return e
	case errors.Is(err, history.ErrInvalidKind):
		return NewValidationError("kind")
	case errors.Is(err, history.ErrInvalidSettings):
		return NewValidationError("data")
	case errors.Is(err, history.ErrInvalidSettingKey):
		return NewValidationError("name")
	}
	return NewInternalError("request failed", err)
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
		if ShowErrorDetails {
			apiErr.Details = err.Error()
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		apiLog.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}

	if err := c.JSON(apiErr.Status, apiErr); err != nil {
		apiLog.Warn().Err(err).Msg("failed to write error response")
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
