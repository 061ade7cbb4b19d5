package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Veraticus/expensy/internal/common"
)

// ErrNetwork marks transport failures and unreadable responses.
var ErrNetwork = errors.New("network error")

// NetworkErrorMessage is shown for any transport failure.
const NetworkErrorMessage = "Network error or unexpected problem occurred."

// Error is a non-2xx response.
type Error struct {
	Message   string
	RequestID string
	Data      json.RawMessage
	Status    int
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// FieldErrors decodes per-field validation messages from Data. The server
// sends either one message or a list of messages per field.
func (e *Error) FieldErrors() FieldErrors {
	if len(e.Data) == 0 {
		return nil
	}

	var lists map[string][]string
	if err := json.Unmarshal(e.Data, &lists); err == nil && len(lists) > 0 {
		out := make(FieldErrors, len(lists))
		for field, msgs := range lists {
			out[field] = strings.Join(msgs, "; ")
		}
		return out
	}

	var single map[string]string
	if err := json.Unmarshal(e.Data, &single); err == nil && len(single) > 0 {
		return FieldErrors(single)
	}
	return nil
}

// FieldErrors maps a JSON field name to what is wrong with it.
type FieldErrors map[string]string

// String renders the errors sorted by field.
func (f FieldErrors) String() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + " " + f[field]
	}
	return strings.Join(parts, ", ")
}

// ValidationError rejects a request before it is sent.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Fields.String()
}

// Unwrap lets errors.Is match common.ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return common.ErrInvalidInput
}

// UserMessage returns the text to show for an error returned by the client:
// the server's message for API errors, a fixed message for network errors.
func UserMessage(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "Please fix: " + validationErr.Fields.String()
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if errors.Is(err, common.ErrSessionExpired) {
			return "Your session has expired. Please log in again."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "An error occurred"
	}

	switch {
	case errors.Is(err, ErrNetwork):
		return NetworkErrorMessage
	case errors.Is(err, common.ErrNotLoggedIn):
		return "You are not logged in. Run 'expensy login' first."
	}
	return common.UserMessage(err)
}
