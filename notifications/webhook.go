package notifications

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/flow-hydraulics/flow-settings-api/settings"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

type WebhookOption func(*Webhook)

// WithRetryBackoff sets the bounds of the wait between attempts.
func WithRetryBackoff(min, max time.Duration) WebhookOption {
	return func(w *Webhook) {
		w.minBackoff = min
		w.maxBackoff = max
	}
}

func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		w.client = c
	}
}

// Webhook POSTs every update to a URL, retrying with jittered exponential
// backoff until it gets a 2xx or runs out of attempts.
type Webhook struct {
	url         *url.URL
	timeout     time.Duration
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	client      *http.Client
}

func NewWebhook(rawURL string, timeout time.Duration, maxAttempts int, opts ...WebhookOption) (*Webhook, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	w := &Webhook{
		url:         u,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		minBackoff:  100 * time.Millisecond,
		maxBackoff:  30 * time.Second,
		client:      &http.Client{},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Handle implements settings.UpdatedHandler. Failures are only logged.
func (w *Webhook) Handle(ctx context.Context, p settings.UpdatedPayload) {
	if err := w.Send(ctx, p); err != nil {
		log.
			WithFields(log.Fields{"error": err, "url": w.url.String()}).
			Warn("Failed to deliver settings updated webhook")
	}
}

// Send delivers p, retrying until success, ctx is done or maxAttempts is hit.
func (w *Webhook) Send(ctx context.Context, p settings.UpdatedPayload) error {
	content, err := encode(p)
	if err != nil {
		return fmt.Errorf("error while encoding webhook content: %w", err)
	}

	b := &backoff.Backoff{
		Min:    w.minBackoff,
		Max:    w.maxBackoff,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; ; attempt++ {
		err = w.post(ctx, content)
		if err == nil {
			return nil
		}

		if attempt >= w.maxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		wait := b.Duration()
		log.
			WithFields(log.Fields{"error": err, "attempt": attempt, "wait": wait}).
			Debug("Retrying settings updated webhook")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (w *Webhook) post(ctx context.Context, content []byte) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url.String(), bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("error while creating webhook request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while sending webhook request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	io.Copy(io.Discard, resp.Body) // nolint

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint responded with an unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
