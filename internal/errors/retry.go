package errors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior for remote source acquisition.
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retries (0 = no retries)
	InitialDelay   time.Duration // Initial delay before first retry
	MaxDelay       time.Duration // Maximum delay between retries
	Multiplier     float64       // Delay multiplier for exponential backoff
	Jitter         float64       // Random jitter factor (0-1)
	RetryableTypes []ErrorType   // Error types that should be retried
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
		RetryableTypes: []ErrorType{
			Network,
			Timeout,
			RateLimit,
			ServerError,
		},
	}
}

// Retrier implements retry logic with exponential backoff.
type Retrier struct {
	config RetryConfig
	rng    *rand.Rand
}

// NewRetrier creates a new retrier.
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDefaultRetrier creates a retrier with default configuration.
func NewDefaultRetrier() *Retrier {
	return NewRetrier(DefaultRetryConfig())
}

// RetryFunc is a function that can be retried.
type RetryFunc func(ctx context.Context) error

// RetryResult holds the result of a retry operation.
type RetryResult struct {
	Attempts  int
	LastError error
	Duration  time.Duration
	Success   bool
}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent.
func (r *Retrier) Do(ctx context.Context, operation, locator string, fn RetryFunc) *RetryResult {
	result := &RetryResult{}
	start := time.Now()

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result.Attempts++

		err := fn(ctx)
		if err == nil {
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}
		result.LastError = err

		if ctx.Err() != nil {
			result.LastError = NewCancelledError(locator, operation)
			break
		}
		if attempt >= r.config.MaxRetries || !r.shouldRetry(err) {
			break
		}

		select {
		case <-ctx.Done():
			result.LastError = NewCancelledError(locator, operation)
			result.Duration = time.Since(start)
			return result
		case <-time.After(r.calculateDelay(BackoffDuration(attempt+1, r.config.InitialDelay, r.config.MaxDelay, r.config.Multiplier))):
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Retrier) shouldRetry(err error) bool {
	errType := GetErrorType(err)
	for _, t := range r.config.RetryableTypes {
		if errType == t {
			return true
		}
	}
	return IsRetryable(err)
}

func (r *Retrier) calculateDelay(baseDelay time.Duration) time.Duration {
	if r.config.Jitter <= 0 {
		return baseDelay
	}
	jitter := r.config.Jitter * float64(baseDelay)
	return time.Duration(float64(baseDelay) + (r.rng.Float64()*2*jitter - jitter))
}

// DoWithResult executes a function that returns a value and error.
func DoWithResult[T any](ctx context.Context, r *Retrier, operation, locator string, fn func(ctx context.Context) (T, error)) (T, *RetryResult) {
	var value T
	res := r.Do(ctx, operation, locator, func(ctx context.Context) error {
		var err error
		value, err = fn(ctx)
		return err
	})
	return value, res
}

// BackoffDuration calculates the backoff duration for a given attempt.
func BackoffDuration(attempt int, initial, max time.Duration, multiplier float64) time.Duration {
	if attempt <= 0 {
		return initial
	}
	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}
