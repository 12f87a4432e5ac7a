package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// BridgeSender forwards batched alerts to the push relay.
type BridgeSender interface {
	Push(ctx context.Context, alerts map[string]Alert) error
}

const (
	defaultBridgeTimeout = 10 * time.Second
	defaultMaxPerMinute  = 30
)

// BridgeClient POSTs the alert map as JSON with a bearer credential. The
// relay's response body is not interesting beyond error reporting; non-2xx
// is an error for the caller to log, never a retry here. Pushes beyond the
// rate cap are dropped: the next changed poll re-sends the pending set.
type BridgeClient struct {
	url     string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewBridgeClient(url, token string, timeout time.Duration, maxPerMinute int, log zerolog.Logger) *BridgeClient {
	if timeout <= 0 {
		timeout = defaultBridgeTimeout
	}
	if maxPerMinute <= 0 {
		maxPerMinute = defaultMaxPerMinute
	}
	return &BridgeClient{
		url:     url,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute),
		log:     log.With().Str("comp", "bridge").Logger(),
	}
}

func (c *BridgeClient) Push(ctx context.Context, alerts map[string]Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if !c.limiter.Allow() {
		c.log.Debug().Int("alerts", len(alerts)).Msg("push dropped by rate cap")
		return nil
	}

	body, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("bridge post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("bridge: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	c.log.Debug().Int("alerts", len(alerts)).Msg("push ok")
	return nil
}
