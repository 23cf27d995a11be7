package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mfenderov/smart-organizer/internal/resilience"
)

// ErrTransport marks failures where no usable answer came back: the service
// was unreachable, timed out, or replied with something that is not JSON.
var ErrTransport = errors.New("transport failure")

// RemoteError is an error the service declared in its response body through
// an "error" or "detail" field.
type RemoteError struct {
	Operation string
	Status    int
	Message   string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: service returned status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unauthorized reports whether the service rejected the bearer credential.
func (e *RemoteError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// StatusError is a non-2xx response without a declared error message.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status: %s", e.Operation, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// UserMessage returns the single user-visible text for err: the service's own
// message for declared errors, fallback for everything else.
func UserMessage(err error, fallback string) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return fallback
}

// IsUnauthorized reports whether the service answered err with a 401.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Unauthorized()
	}
	var status *StatusError
	return errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized
}

// declaredError extracts the "error" or "detail" message from a JSON body.
// FastAPI validation failures carry detail as a list of {msg} objects.
func declaredError(body []byte) (string, bool) {
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	if msg := rawMessageText(envelope.Error); msg != "" {
		return msg, true
	}
	if msg := rawMessageText(envelope.Detail); msg != "" {
		return msg, true
	}
	return "", false
}

func rawMessageText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		var msgs []string
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return strings.TrimSpace(string(raw))
}

// classifyError decides which read failures are worth another attempt and
// which count against the endpoint. A declared error or an ordinary status
// means the service is up.
func classifyError(err error) resilience.Verdict {
	var (
		remote    *RemoteError
		statusErr *StatusError
		netErr    net.Error
	)
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &remote):
		return resilience.Answered
	case errors.As(err, &statusErr):
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.Transient
		}
		return resilience.Answered
	case errors.As(err, &netErr):
		return resilience.Transient
	default:
		return resilience.Broken
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
