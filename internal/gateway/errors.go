package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// Error is a failed gateway call. It unwraps to one of the entity error kinds
// and, for transport failures, to the underlying error.
type Error struct {
	Op         string // Op is the gateway operation that failed.
	StatusCode int    // StatusCode is the HTTP status, zero when no response was received.
	Message    string // Message is the server-provided or local description.
	Kind       error  // Kind is one of the entity error sentinels.
	Err        error  // Err is the underlying transport or decoding error, if any.
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindForStatus maps a non-success HTTP status to an entity error kind.
func KindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return entity.ErrUnauthorized
	case code == http.StatusNotFound:
		return entity.ErrNotFound
	case code == http.StatusConflict:
		return entity.ErrConflict
	case code >= 500:
		return entity.ErrServiceUnavailable
	case code >= 400:
		return entity.ErrValidation
	default:
		return entity.ErrServiceUnavailable
	}
}

// Message extracts the human-readable message of a gateway failure, falling
// back to the error text for anything else.
func Message(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return err.Error()
}

// IsCanceled reports whether err was caused by the caller's context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
