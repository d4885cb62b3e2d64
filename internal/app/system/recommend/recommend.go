// Package recommend talks to the external recommendation service, which
// indexes published events and forgets completed or deleted ones.
package recommend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Client calls the recommendation service.
//
//	POST   {base}/recommend/add/{id}
//	DELETE {base}/recommend/delete/{id}
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses a default
// client with the Remote timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.Remote()}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recommend %s: unexpected status %d", e.Op, e.Status)
}

// Add indexes an event.
func (c *Client) Add(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodPost, "add", eventID)
}

// Remove drops an event from the index.
func (c *Client) Remove(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "delete", eventID)
}

func (c *Client) do(ctx context.Context, method, op, eventID string) error {
	u := c.base + "/recommend/" + op + "/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode}
	}
	return nil
}

// Notifier is the best-effort wrapper handlers use. Failures are logged and
// counted, never returned, so the primary request is unaffected.
// A nil *Notifier, or one built with an empty base URL, does nothing.
type Notifier struct {
	client  *Client
	log     *zap.Logger
	timeout time.Duration
}

// NewNotifier returns a Notifier for baseURL. An empty baseURL disables calls.
func NewNotifier(baseURL string, logger *zap.Logger) *Notifier {
	n := &Notifier{log: logger, timeout: timeouts.Remote()}
	if baseURL != "" {
		n.client = NewClient(baseURL, nil)
	}
	return n
}

// NewNotifierWithClient is used by tests to point at an httptest server.
func NewNotifierWithClient(c *Client, logger *zap.Logger) *Notifier {
	return &Notifier{client: c, log: logger, timeout: timeouts.Remote()}
}

// Enabled reports whether calls are actually sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil
}

// Published tells the service about a newly published event.
func (n *Notifier) Published(ctx context.Context, eventID string) {
	n.call(ctx, "add", eventID, func(ctx context.Context) error { return n.client.Add(ctx, eventID) })
}

// Withdrawn tells the service an event was completed or deleted.
func (n *Notifier) Withdrawn(ctx context.Context, eventID string) {
	n.call(ctx, "delete", eventID, func(ctx context.Context) error { return n.client.Remove(ctx, eventID) })
}

func (n *Notifier) call(ctx context.Context, op, eventID string, fn func(context.Context) error) {
	if !n.Enabled() {
		return
	}
	// Detach from the request so a client disconnect does not cancel the call.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		metrics.RecommendCalls.WithLabelValues(op, "error").Inc()
		n.log.Warn("recommendation service call failed",
			zap.String("op", op),
			zap.String("event_id", eventID),
			zap.Error(err))
		return
	}
	metrics.RecommendCalls.WithLabelValues(op, "ok").Inc()
}
