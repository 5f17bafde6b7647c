// Package http provides the HTTP client used to fetch remote source archives.
package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/ratelimit"
)

// Client wraps net/http with rate limiting, retries and error categorization.
type Client struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	limiter     *ratelimit.Limiter
	retrier     *errors.Retrier
	metrics     *metrics.Collector
	mu          sync.RWMutex
}

// ClientConfig holds configuration for the HTTP client.
type ClientConfig struct {
	Timeout           time.Duration
	MaxIdleConns      int
	MaxConnsPerHost   int
	UserAgent         string
	Headers           map[string]string
	MaxBodySize       int64
	RequestsPerSecond float64
	Burst             int
}

// DefaultClientConfig returns defaults suited to a handful of large downloads.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           5 * time.Minute,
		MaxIdleConns:      10,
		MaxConnsPerHost:   4,
		UserAgent:         "routescan/1.0",
		MaxBodySize:       512 << 20,
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

// NewClient creates a new HTTP client.
func NewClient(config ClientConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	c := &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   config.UserAgent,
		headers:     config.Headers,
		maxBodySize: config.MaxBodySize,
		retrier:     errors.NewDefaultRetrier(),
	}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = ratelimit.NewLimiter(config.RequestsPerSecond, burst)
	}
	return c
}

// SetHeaders sets custom headers for all requests.
func (c *Client) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	c.headers = headers
	c.mu.Unlock()
}

// SetRetryConfig sets custom retry configuration.
func (c *Client) SetRetryConfig(config errors.RetryConfig) {
	c.mu.Lock()
	c.retrier = errors.NewRetrier(config)
	c.mu.Unlock()
}

// SetMetrics sets the collector that request and retry counts go to.
func (c *Client) SetMetrics(m *metrics.Collector) {
	c.mu.Lock()
	c.metrics = m
	c.mu.Unlock()
}

// Limiter returns the client's rate limiter, nil when unlimited.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Response is a successful response whose body has not been read yet.
// The caller must close Body.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	Duration    time.Duration
}

type limitedBody struct {
	io.Reader
	io.Closer
}

// Get performs a GET request. Any non-2xx status is returned as a categorized
// error with the body already closed.
func (c *Client) Get(ctx context.Context, target string, headers map[string]string) (*Response, error) {
	start := time.Now()

	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.NewScanError(errors.Config, target, "request_creation", "invalid URL", err)
	}

	if c.limiter != nil {
		if err := c.limiter.WaitHost(ctx, u.Host); err != nil {
			return nil, errors.NewCancelledError(target, "rate_limit_wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewScanError(errors.Config, target, "request_creation", "failed to create request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	m := c.metrics
	c.mu.RUnlock()
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if m != nil {
		m.RecordHTTPRequest()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError(target, "request")
		}
		return nil, errors.Categorize(err, target)
	}

	if httpErr := errors.CategorizeHTTPStatus(resp.StatusCode, target); httpErr != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			httpErr = c.rateLimited(u.Host, target, resp.Header.Get("Retry-After"))
		}
		resp.Body.Close()
		return nil, httpErr
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		err := errors.NewScanError(errors.Unknown, target, "request", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		err.StatusCode = resp.StatusCode
		return nil, err
	}

	body := resp.Body
	if c.maxBodySize > 0 {
		body = limitedBody{Reader: io.LimitReader(resp.Body, c.maxBodySize), Closer: resp.Body}
	}

	return &Response{
		URL:         target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

func (c *Client) rateLimited(host, target, retryAfter string) *errors.ScanError {
	secs, err := strconv.Atoi(retryAfter)
	if err != nil || secs < 0 {
		secs = 60
	}
	if c.limiter != nil {
		c.limiter.Pause(host, time.Duration(secs)*time.Second)
	}
	return errors.NewRateLimitError(target, secs)
}

// GetWithRetry performs a GET request with automatic retries for transient
// errors. Only obtaining the response is retried, not reading its body.
func (c *Client) GetWithRetry(ctx context.Context, target string, headers map[string]string) (*Response, error) {
	c.mu.RLock()
	retrier := c.retrier
	m := c.metrics
	c.mu.RUnlock()

	resp, result := errors.DoWithResult(ctx, retrier, "http_get", target, func(ctx context.Context) (*Response, error) {
		return c.Get(ctx, target, headers)
	})

	if m != nil {
		for i := 1; i < result.Attempts; i++ {
			m.RecordRetry()
		}
	}
	if !result.Success {
		return nil, result.LastError
	}
	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
