package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/resilience"
)

const requestIDHeader = "X-Request-Id"

// maxJSONBody bounds how much of a JSON response is read.
const maxJSONBody = 8 << 20

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// postJSON sends payload once; mutations are never retried.
func (c *Client) postJSON(ctx context.Context, operation, path, token string, payload, out any, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, path, token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, operation, out)
}

// getJSON runs an idempotent read with retries and the endpoint's breaker.
func (c *Client) getJSON(ctx context.Context, operation, path, token string, out any) error {
	err := c.reads.Read(ctx, operation, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
		if err != nil {
			return err
		}
		return c.do(req, operation, out)
	})

	if errors.Is(err, resilience.ErrUnavailable) {
		return fmt.Errorf("%w: %s: %w", ErrTransport, operation, err)
	}
	return err
}

// do sends req and decodes the JSON answer into out. A declared error in the
// body takes precedence over the status code.
func (c *Client) do(req *http.Request, operation string, out any) error {
	start := time.Now()
	err := c.roundTrip(req, operation, out)
	c.metrics.ObserveCall(operation, outcome(err), time.Since(start))
	return err
}

func (c *Client) roundTrip(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrTransport, operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("%w: failed to read %s response: %w", ErrTransport, operation, err)
	}

	if msg, ok := declaredError(body); ok {
		return &RemoteError{Operation: operation, Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %w", ErrTransport, operation, err)
	}
	return nil
}

func outcome(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &remote):
		return metrics.OutcomeDeclared
	default:
		return metrics.OutcomeTransport
	}
}
