package carriers

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"short", "bad request", 20, "bad request"},
		{"ascii", "abcdef", 3, "abc..."},
		{"multibyte boundary", "prix: 12€ de plus", 10, "prix: 12..."},
		{"multibyte start", "€€", 2, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestRateErrorBodyStaysValidUTF8(t *testing.T) {
	err := &RateError{Provider: "freight", StatusCode: http.StatusBadRequest, Body: "a" + strings.Repeat("é", 400)}
	assert.True(t, utf8.ValidString(err.Error()))
}
