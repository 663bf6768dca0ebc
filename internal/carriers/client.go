package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"freight-quote-service/internal/models"
)

// gatewayClient is the HTTP plumbing shared by the rating gateways
type gatewayClient struct {
	name        string
	config      GatewayConfig
	httpClient  *http.Client
	tokens      *tokenSource
	rateLimiter *rate.Limiter
	logger      *logrus.Entry
	now         func() time.Time
}

func newGatewayClient(name string, config GatewayConfig, logger *logrus.Entry) gatewayClient {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("gateway", name)
	httpClient := &http.Client{
		Timeout: config.timeout(),
	}
	return gatewayClient{
		name:        name,
		config:      config,
		httpClient:  httpClient,
		tokens:      newTokenSource(name, config, httpClient, logger),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 2), // 5 requests per second, dual-mode calls share the burst
		logger:      logger,
		now:         time.Now,
	}
}

// setClock replaces the time source used for tokens and default dates
func (c *gatewayClient) setClock(now func() time.Time) {
	c.now = now
	c.tokens.now = now
}

// do sends an authenticated JSON request and decodes a 2xx response into out
func (c *gatewayClient) do(ctx context.Context, method, path string, mode models.QuoteMode, payload, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"mode":     mode,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Rating provider call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			// the token was refused early; the next call fetches a fresh one
			c.tokens.Invalidate()
		}
		return &RateError{
			Provider:   c.name,
			Mode:       mode,
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// pickupDay returns the requested pickup date, or the next weekday when none was given
func (c *gatewayClient) pickupDay(requested time.Time) time.Time {
	if !requested.IsZero() {
		return requested
	}
	day := c.now().AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// parseProviderDate accepts the date formats seen in provider responses
func parseProviderDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
