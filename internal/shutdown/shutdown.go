// Package shutdown turns termination signals into context cancellation and
// runs registered cleanups once.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/PentesterFlow/routescan/internal/logger"
)

// Handler manages graceful shutdown.
//
// The first signal cancels Context so in-flight work unwinds through its own
// deferred cleanup. A second signal calls OnForce. Registered cleanups run
// only from Shutdown.
type Handler struct {
	mu sync.Mutex

	// Cleanups
	cleanups []Cleanup
	names    []string

	// State
	isShuttingDown atomic.Bool
	interrupted    atomic.Int32
	done           chan struct{}
	timeout        time.Duration

	// Context
	ctx    context.Context
	cancel context.CancelFunc

	// Signal handling
	sigChan chan os.Signal
	stop    chan struct{}
	onForce func()

	log *logger.Logger
}

// Cleanup is a function called during shutdown.
type Cleanup func(ctx context.Context) error

// Config holds shutdown configuration.
type Config struct {
	Timeout time.Duration
	Signals []os.Signal
	// OnForce runs on the second signal. Defaults to exiting with status 130.
	OnForce func()
	Logger  *logger.Logger
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// New creates a handler and starts listening for signals.
func New(cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	if cfg.OnForce == nil {
		cfg.OnForce = func() { os.Exit(130) }
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Handler{
		done:    make(chan struct{}),
		timeout: cfg.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 2),
		stop:    make(chan struct{}),
		onForce: cfg.OnForce,
		log:     cfg.Logger,
	}

	signal.Notify(h.sigChan, cfg.Signals...)
	go h.listen()

	return h
}

func (h *Handler) listen() {
	for {
		select {
		case sig := <-h.sigChan:
			if h.interrupted.Add(1) == 1 {
				h.log.WithField("signal", sig.String()).Warn("Interrupted, stopping (signal again to force)")
				h.cancel()
				continue
			}
			h.log.Warn("Forced exit")
			h.onForce()
			return
		case <-h.stop:
			return
		}
	}
}

// Register adds a named cleanup. Cleanups run in reverse order.
func (h *Handler) Register(name string, cleanup Cleanup) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cleanups = append(h.cleanups, cleanup)
	h.names = append(h.names, name)
}

// RegisterFunc registers a simple cleanup function.
func (h *Handler) RegisterFunc(name string, fn func()) {
	h.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Context returns a context cancelled by the first signal or by Shutdown.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted reports whether a signal has been received.
func (h *Handler) Interrupted() bool {
	return h.interrupted.Load() > 0
}

// IsShuttingDown returns whether shutdown is in progress.
func (h *Handler) IsShuttingDown() bool {
	return h.isShuttingDown.Load()
}

// Done returns a channel that is closed when shutdown completes.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Shutdown cancels the context, runs the cleanups and stops listening.
// Only the first call does any work.
func (h *Handler) Shutdown() []error {
	if !h.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	start := time.Now()
	h.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), h.timeout)
	defer shutdownCancel()

	h.mu.Lock()
	cleanups := make([]Cleanup, len(h.cleanups))
	names := make([]string, len(h.names))
	copy(cleanups, h.cleanups)
	copy(names, h.names)
	h.mu.Unlock()

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := h.run(shutdownCtx, names[i], cleanups[i]); err != nil {
			h.log.WithError(err).WithField("cleanup", names[i]).Warn("Cleanup failed")
			errs = append(errs, err)
		}
	}

	h.Stop()
	h.log.WithDuration(time.Since(start)).Debugf("Shutdown completed with %d errors", len(errs))
	close(h.done)
	return errs
}

// run executes a cleanup, giving up when ctx expires.
func (h *Handler) run(ctx context.Context, name string, cleanup Cleanup) error {
	done := make(chan error, 1)

	go func() {
		done <- cleanup(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &TimeoutError{CleanupName: name}
	}
}

// Stop stops signal delivery to the handler. It is safe to call repeatedly.
func (h *Handler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.stop:
	default:
		signal.Stop(h.sigChan)
		close(h.stop)
	}
}

// Trigger simulates a termination signal.
func (h *Handler) Trigger() {
	select {
	case h.sigChan <- syscall.SIGTERM:
	default:
		// Signal already pending
	}
}

// TimeoutError is returned when a cleanup times out.
type TimeoutError struct {
	CleanupName string
}

func (e *TimeoutError) Error() string {
	return "shutdown cleanup timed out: " + e.CleanupName
}
