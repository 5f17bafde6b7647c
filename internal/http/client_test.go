package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/metrics"
)

func fastRetry(maxRetries int) errors.RetryConfig {
	return errors.RetryConfig{
		MaxRetries:     maxRetries,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		RetryableTypes: []errors.ErrorType{errors.Network, errors.ServerError, errors.RateLimit},
	}
}

func readAll(t *testing.T, resp *Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// =============================================================================
// ClientConfig Tests
// =============================================================================

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultClientConfig()

	if config.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", config.Timeout)
	}
	if config.UserAgent == "" {
		t.Error("UserAgent should not be empty")
	}
	if config.MaxBodySize <= 0 {
		t.Error("MaxBodySize should be positive")
	}
	if config.RequestsPerSecond <= 0 {
		t.Error("RequestsPerSecond should be positive")
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(DefaultClientConfig())
	if client == nil || client.client == nil {
		t.Fatal("NewClient returned an unusable client")
	}
	if client.Limiter() == nil {
		t.Error("limiter should be set when a rate is configured")
	}

	unlimited := NewClient(ClientConfig{UserAgent: "x"})
	if unlimited.Limiter() != nil {
		t.Error("limiter should be nil without a rate")
	}
}

// =============================================================================
// Get Tests
// =============================================================================

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "routescan-test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "static" {
			t.Errorf("X-Client = %q", got)
		}
		w.Header().Set("Content-Type", "application/x-gzip")
		w.Write([]byte("archive-bytes"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{UserAgent: "routescan-test", Headers: map[string]string{"X-Client": "static"}})
	resp, err := client.Get(context.Background(), server.URL, map[string]string{"Authorization": "Bearer abc"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != 200 || resp.ContentType != "application/x-gzip" {
		t.Errorf("resp = %+v", resp)
	}
	if body := readAll(t, resp); body != "archive-bytes" {
		t.Errorf("body = %q", body)
	}
}

func TestClient_Get_FollowsRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tarball" {
			http.Redirect(w, r, "/codeload", http.StatusFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := NewClient(DefaultClientConfig()).Get(context.Background(), server.URL+"/tarball", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(resp.FinalURL, "/codeload") {
		t.Errorf("FinalURL = %s", resp.FinalURL)
	}
	readAll(t, resp)
}

func TestClient_Get_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.Auth},
		{http.StatusForbidden, errors.Auth},
		{http.StatusNotFound, errors.NotFound},
		{http.StatusTooManyRequests, errors.RateLimit},
		{http.StatusBadGateway, errors.ServerError},
		{http.StatusTeapot, errors.Unknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			resp, err := NewClient(DefaultClientConfig()).Get(context.Background(), server.URL, nil)
			if resp != nil {
				t.Error("no response expected on error status")
			}
			if got := errors.GetErrorType(err); got != tt.want {
				t.Errorf("error type = %v, want %v", got, tt.want)
			}
			if errors.GetStatusCode(err) != tt.status {
				t.Errorf("status code = %d, want %d", errors.GetStatusCode(err), tt.status)
			}
		})
	}
}

func TestClient_Get_RetryAfterPausesHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig())
	_, err := client.Get(context.Background(), server.URL, nil)
	if errors.GetErrorType(err) != errors.RateLimit {
		t.Fatalf("error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Get(ctx, server.URL, nil); errors.GetErrorType(err) != errors.Cancelled {
		t.Errorf("a paused host should hold the next request until ctx ends, got %v", err)
	}
}

func TestClient_Get_InvalidURL(t *testing.T) {
	_, err := NewClient(DefaultClientConfig()).Get(context.Background(), "://bad", nil)
	if errors.GetErrorType(err) != errors.Config {
		t.Errorf("error = %v, want Config", err)
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Timeout: 20 * time.Millisecond, UserAgent: "x"})
	_, err := client.Get(context.Background(), server.URL, nil)
	if err == nil {
		t.Fatal("expected a timeout")
	}
	if errors.GetErrorType(err) != errors.Timeout {
		t.Errorf("error type = %v, want Timeout", errors.GetErrorType(err))
	}
}

func TestClient_Get_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ClientConfig{UserAgent: "x"}).Get(ctx, server.URL, nil)
	if errors.GetErrorType(err) != errors.Cancelled {
		t.Errorf("error = %v, want Cancelled", err)
	}
}

func TestClient_Get_MaxBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	resp, err := NewClient(ClientConfig{UserAgent: "x", MaxBodySize: 4}).Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if body := readAll(t, resp); body != "0123" {
		t.Errorf("body = %q, want truncated to 4 bytes", body)
	}
}

// =============================================================================
// GetWithRetry Tests
// =============================================================================

func TestClient_GetWithRetry_RecoversFromServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	m := metrics.New()
	client := NewClient(ClientConfig{UserAgent: "x"})
	client.SetRetryConfig(fastRetry(3))
	client.SetMetrics(m)

	resp, err := client.GetWithRetry(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("GetWithRetry() error = %v", err)
	}
	readAll(t, resp)

	snap := m.Snapshot()
	if snap.HTTPRequests != 3 {
		t.Errorf("HTTPRequests = %d, want 3", snap.HTTPRequests)
	}
	if snap.RetriesTotal != 2 {
		t.Errorf("RetriesTotal = %d, want 2", snap.RetriesTotal)
	}
}

func TestClient_GetWithRetry_NoRetryForAuth(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{UserAgent: "x"})
	client.SetRetryConfig(fastRetry(3))

	_, err := client.GetWithRetry(context.Background(), server.URL, nil)
	if !errors.IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestClient_GetWithRetry_Exhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{UserAgent: "x"})
	client.SetRetryConfig(fastRetry(2))

	_, err := client.GetWithRetry(context.Background(), server.URL, nil)
	if errors.GetErrorType(err) != errors.ServerError {
		t.Errorf("error = %v, want ServerError", err)
	}
}
