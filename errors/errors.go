package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is the error envelope returned to API clients.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d", e.Message, e.Status)
}

// New creates a new Error with the given message and HTTP status.
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrNotFound            = New("resource not found", http.StatusNotFound)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrInvalidPassword     = New("invalid email or password", http.StatusUnprocessableEntity)
	InActiveUserError      = errors.New("user inactive")

	// ErrAlreadySupported is returned when a user supports a report a
	// second time. It is an explicit condition, not a silent no-op, so the
	// caller can tell the user.
	ErrAlreadySupported = New("ya te has sumado a este reporte", http.StatusConflict)
)

// GetUniqueContraintError maps a database unique-constraint violation to a
// client-facing conflict error.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return New("user with this email already exists", http.StatusConflict)
	case strings.Contains(msg, "duplicate"), strings.Contains(msg, "unique"):
		return New("record already exists", http.StatusConflict)
	default:
		return New(msg, http.StatusConflict)
	}
}

// Is reports whether err carries the given HTTP status.
func Is(err error, status int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == status
	}
	return false
}

// ErrorHandler is the handler installed on the rate-limit middleware.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": fmt.Sprintf("too many requests, try again in %s", time.Until(info.ResetTime).Round(time.Second)),
		"status":  http.StatusTooManyRequests,
	})
	c.Abort()
}
