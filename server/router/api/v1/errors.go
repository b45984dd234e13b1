package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zihaozhangmm/slider/store"
)

// versionConflictMessage is the client-visible body of a 409 response.
const versionConflictMessage = "Conflict - data is outdated."

// ValidationError reports missing or invalid client input.
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func invalidArgumentf(format string, args ...any) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent referenced entity.
type NotFoundError struct {
	message string
}

func (e *NotFoundError) Error() string {
	return e.message
}

func notFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{message: fmt.Sprintf(format, args...)}
}

// errorResponse maps the service error taxonomy onto structured JSON
// responses. Every failure becomes {"error": message}; nothing is swallowed.
func errorResponse(c echo.Context, err error) error {
	var validationErr *ValidationError
	var notFoundErr *NotFoundError

	switch {
	case errors.Is(err, store.ErrVersionConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": versionConflictMessage})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, map[string]string{"error": notFoundErr.Error()})
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
