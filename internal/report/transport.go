package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Transport posts assembled payloads to an external collector endpoint.
// Delivery is best-effort: server errors are retried with backoff, client
// errors are not.
type Transport struct {
	Endpoint   string
	Client     *http.Client
	MaxRetries uint64
}

func NewTransport(endpoint string, timeout time.Duration) *Transport {
	return &Transport{
		Endpoint:   endpoint,
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: 2,
	}
}

func (t *Transport) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

// Send posts the payload as JSON. A nil error means the endpoint accepted it.
// An empty endpoint disables delivery without error.
func (t *Transport) Send(ctx context.Context, p Payload) error {
	if t.Endpoint == "" {
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", p.ReportID, err)
	}

	backoff := retry.WithMaxRetries(t.MaxRetries, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client().Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("report endpoint returned HTTP %d", resp.StatusCode))
		default:
			return fmt.Errorf("report endpoint rejected payload with HTTP %d", resp.StatusCode)
		}
	})
}
