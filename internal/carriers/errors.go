package carriers

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"freight-quote-service/internal/models"
)

// RateError is returned when a rating endpoint answers with a non-2xx status
type RateError struct {
	Provider   string
	Mode       models.QuoteMode
	StatusCode int
	Body       string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%s %s rate request failed with status %d: %s", e.Provider, e.Mode, e.StatusCode, truncate(e.Body, 500))
}

// AuthError is returned when a gateway cannot obtain a bearer token
type AuthError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s authentication failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s authentication failed with status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 500))
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is, or wraps, an AuthError
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
