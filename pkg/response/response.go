// Package response describes the JSON error envelope exchanged with the
// shortener service: `{"error": "..."}`, optionally with a message and
// per-field validation details.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 4096

type Response struct {
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Details []validationError `json:"details,omitempty"`
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

var (
	EmptyRequestBodyResponse = Response{
		Error: "empty request body",
	}

	BadRequestResponse = Response{
		Error: "invalid request body",
	}

	UnauthorizedResponse = Response{
		Error: "unauthorized",
	}

	LinkNotFoundResponse = Response{
		Error: "link not found",
	}

	ServerErrorResponse = Response{
		Error: "server error occurred",
	}
)

// ErrorResponse wraps msg into an error envelope.
func ErrorResponse(msg string) Response {
	return Response{Error: msg}
}

// ValidationErrorResponse builds an error envelope describing the validator errors in err.
func ValidationErrorResponse(err error) Response {
	return Response{
		Error:   "validation error",
		Details: getValidationErrors(err),
	}
}

// Decode reads an error envelope from r. It reports false when the body is
// not a JSON envelope; the trimmed raw body is then returned as Error.
func Decode(r io.Reader) (Response, bool) {
	raw, _ := io.ReadAll(io.LimitReader(r, maxBodyBytes))

	var resp Response
	if err := json.Unmarshal(raw, &resp); err == nil && (resp.Error != "" || resp.Message != "") {
		return resp, true
	}

	return Response{Error: strings.TrimSpace(string(raw))}, false
}

// Text returns the most specific human-readable message of the envelope.
func (r Response) Text() string {
	msg := r.Error
	if msg == "" {
		msg = r.Message
	}

	if len(r.Details) == 0 {
		return msg
	}

	issues := make([]string, 0, len(r.Details))
	for _, d := range r.Details {
		issues = append(issues, fmt.Sprintf("%s: %s", d.Field, d.Issue))
	}

	return fmt.Sprintf("%s (%s)", msg, strings.Join(issues, "; "))
}

func issueForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "email":
		return "Invalid email."
	case "min":
		return "Value is too short."
	case "max":
		return "Value is too long."
	case "alphanum", "printascii":
		return "Invalid characters."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field: e.Field(),
				Value: e.Value(),
				Issue: issueForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}
