package connection

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the normalized form of every non-2xx backend response.
type APIError struct {
	Message    string
	StatusCode int
	// Body is the raw response body, kept for callers that need more than Message.
	Body []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// TransportError reports a request that never produced an HTTP response:
// connection refused, DNS failure, TLS failure, cancelled context.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// newAPIError builds an APIError from a failed response. The message comes
// from the JSON "message" field when present, otherwise a generic status
// message is used.
func newAPIError(status int, body []byte) *APIError {
	msg := errorMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &APIError{
		Message:    msg,
		StatusCode: status,
		Body:       body,
	}
}

// errorMessage extracts "message" from an error body. Validation errors
// from the backend carry a list of messages, which are joined.
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(payload.Message, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}
