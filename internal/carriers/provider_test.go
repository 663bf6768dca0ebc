package carriers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider is an in-process rating provider with an OAuth2 token endpoint
type fakeProvider struct {
	server *httptest.Server

	tokenCalls  int32
	tokenStatus int
	token       string
	expiresIn   int64
	tokenDelay  time.Duration

	mu       sync.Mutex
	requests map[string][]map[string]interface{}
	handlers map[string]http.HandlerFunc
}

func newFakeProvider(t *testing.T) *fakeProvider {
	p := &fakeProvider{
		tokenStatus: http.StatusOK,
		token:       "test-token",
		expiresIn:   3600,
		requests:    make(map[string][]map[string]interface{}),
		handlers:    make(map[string]http.HandlerFunc),
	}

	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			atomic.AddInt32(&p.tokenCalls, 1)
			p.mu.Lock()
			status, token, expiresIn, delay := p.tokenStatus, p.token, p.expiresIn, p.tokenDelay
			p.mu.Unlock()
			time.Sleep(delay)
			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			resp := map[string]interface{}{"access_token": token, "token_type": "Bearer"}
			if expiresIn > 0 {
				resp["expires_in"] = expiresIn
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+p.currentToken() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		if len(body) > 0 {
			_ = json.Unmarshal(body, &payload)
		}

		p.mu.Lock()
		p.requests[r.URL.Path] = append(p.requests[r.URL.Path], payload)
		handler := p.handlers[r.URL.Path]
		p.mu.Unlock()

		if handler == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(p.server.Close)

	return p
}

func (p *fakeProvider) currentToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *fakeProvider) handle(path string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (p *fakeProvider) setToken(status int, token string, expiresIn int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = status
	p.token = token
	p.expiresIn = expiresIn
}

func (p *fakeProvider) calls(path string) []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[path]
}

func (p *fakeProvider) tokenCount() int {
	return int(atomic.LoadInt32(&p.tokenCalls))
}

func (p *fakeProvider) config() GatewayConfig {
	return GatewayConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      p.server.URL,
		Enabled:      true,
	}
}
