// Package server provides the HTTP API that starts generation tasks and
// reports their progress.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/tasks"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnauthenticated indicates a protected handler ran without a user.
type ErrUnauthenticated struct{}

func (e *ErrUnauthenticated) Error() string {
	return "authentication required"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		ve *ErrValidation
		ue *ErrUnauthenticated
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ue):
		return http.StatusUnauthorized
	case errors.Is(err, tasks.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, tasks.ErrTaskExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// validationError converts schema and struct validation failures into an
// *ErrValidation naming the first offending field. Other errors pass
// through unchanged.
func validationError(err error) error {
	var se *schemas.ValidationError
	if errors.As(err, &se) {
		fe := se.First()
		return &ErrValidation{Field: fe.Field, Message: fe.Message}
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		msg := fmt.Sprintf("failed '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed '%s=%s' rule", fe.Tag(), fe.Param())
		}
		return &ErrValidation{Field: fieldPath(fe.Namespace()), Message: msg}
	}
	return err
}

// fieldPath turns "GenerateRequest.Request.week" into "week" and
// "DayBatchRequest.items[0].id" into "items[0].id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.TrimPrefix(namespace, "Request.")
}
