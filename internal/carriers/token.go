package carriers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// tokens are refreshed once this share of their lifetime has passed
	tokenRefreshRatio    = 0.9
	defaultTokenLifetime = time.Hour
)

// tokenSource caches an OAuth2 client-credentials token for one gateway instance.
// An authentication failure is kept until reset so that bad credentials are not retried.
type tokenSource struct {
	provider     string
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client
	logger       *logrus.Entry
	now          func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	token     string
	refreshAt time.Time
	authErr   error
}

func newTokenSource(provider string, config GatewayConfig, httpClient *http.Client, logger *logrus.Entry) *tokenSource {
	return &tokenSource{
		provider:     provider,
		tokenURL:     config.tokenURL(),
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		scope:        config.Scope,
		httpClient:   httpClient,
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a valid bearer token, fetching a new one when needed
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.authErr != nil {
		err := s.authErr
		s.mu.Unlock()
		return "", err
	}
	if s.token != "" && s.now().Before(s.refreshAt) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	// the shared fetch outlives any single caller and is bounded by the client timeout
	ch := s.group.DoChan("token", func() (interface{}, error) {
		return s.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Reset drops the cached token and any remembered authentication failure
func (s *tokenSource) Reset() {
	s.mu.Lock()
	s.token = ""
	s.refreshAt = time.Time{}
	s.authErr = nil
	s.mu.Unlock()
}

// Invalidate drops the cached token but keeps a remembered authentication failure
func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.refreshAt = time.Time{}
	s.mu.Unlock()
}

func (s *tokenSource) fetch(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	if s.scope != "" {
		form.Set("scope", s.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Provider: s.provider, Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	requestedAt := s.now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		// network failures are transient and not remembered
		return "", &AuthError{Provider: s.provider, Err: fmt.Errorf("failed to send token request: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Provider: s.provider, Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := &AuthError{Provider: s.provider, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		if isCredentialRejection(resp.StatusCode) {
			s.mu.Lock()
			s.authErr = authErr
			s.mu.Unlock()
			s.logger.WithField("status", resp.StatusCode).Error("Token request rejected, credentials need attention")
		}
		return "", authErr
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return "", &AuthError{Provider: s.provider, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tokenResp.AccessToken == "" {
		authErr := &AuthError{Provider: s.provider, StatusCode: resp.StatusCode, Body: "token response has no access_token"}
		s.mu.Lock()
		s.authErr = authErr
		s.mu.Unlock()
		return "", authErr
	}

	lifetime := s.lifetime(tokenResp.AccessToken, tokenResp.ExpiresIn, requestedAt)

	s.mu.Lock()
	s.token = tokenResp.AccessToken
	s.refreshAt = requestedAt.Add(time.Duration(float64(lifetime) * tokenRefreshRatio))
	s.authErr = nil
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"lifetime":   lifetime.String(),
		"refresh_at": requestedAt.Add(time.Duration(float64(lifetime) * tokenRefreshRatio)).Format(time.RFC3339),
	}).Debug("Obtained access token")

	return tokenResp.AccessToken, nil
}

// isCredentialRejection reports statuses that mean the credentials themselves are bad.
// Throttling and timeouts are retried on the next call.
func isCredentialRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// lifetime prefers expires_in, then the token's own exp claim, then a default
func (s *tokenSource) lifetime(token string, expiresIn int64, issuedAt time.Time) time.Duration {
	if expiresIn > 0 {
		return time.Duration(expiresIn) * time.Second
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if lifetime := exp.Time.Sub(issuedAt); lifetime > 0 {
				return lifetime
			}
		}
	}

	return defaultTokenLifetime
}
