package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Limiter Tests
// =============================================================================

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)

	if l.limiter == nil {
		t.Fatal("limiter is nil")
	}
	if l.perHost == nil || l.pausedUntil == nil {
		t.Error("host maps should be initialized")
	}
	if l.defaultRate != 10.0 {
		t.Errorf("defaultRate = %v, want 10.0", l.defaultRate)
	}
	if l.defaultBurst != 5 {
		t.Errorf("defaultBurst = %d, want 5", l.defaultBurst)
	}
}

func TestLimiter_WaitHost(t *testing.T) {
	l := NewLimiter(1000, 10)

	if err := l.WaitHost(context.Background(), "api.github.com"); err != nil {
		t.Errorf("WaitHost() error = %v", err)
	}

	l.mu.Lock()
	_, exists := l.perHost["api.github.com"]
	l.mu.Unlock()
	if !exists {
		t.Error("WaitHost should create a per-host limiter")
	}
}

func TestLimiter_WaitHost_ContextCancelled(t *testing.T) {
	l := NewLimiter(0.1, 1)
	if err := l.WaitHost(context.Background(), "h"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.WaitHost(ctx, "h"); err == nil {
		t.Error("WaitHost() should return error for cancelled context")
	}
}

// =============================================================================
// Pause Tests
// =============================================================================

func TestLimiter_Pause(t *testing.T) {
	l := NewLimiter(1000, 10)
	l.Pause("api.github.com", 40*time.Millisecond)

	start := time.Now()
	if err := l.WaitHost(context.Background(), "other.example.com"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Millisecond {
		t.Errorf("pause should only affect its own host: %v", elapsed)
	}

	start = time.Now()
	if err := l.WaitHost(context.Background(), "api.github.com"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("WaitHost returned before the pause ended: %v", elapsed)
	}

	l.mu.Lock()
	_, paused := l.pausedUntil["api.github.com"]
	l.mu.Unlock()
	if paused {
		t.Error("an expired pause should be cleared")
	}
}

func TestLimiter_Pause_Cancelled(t *testing.T) {
	l := NewLimiter(1000, 10)
	l.Pause("api.github.com", time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.WaitHost(ctx, "api.github.com"); err == nil {
		t.Error("WaitHost should fail when ctx ends during a pause")
	}
}

func TestLimiter_Pause_KeepsLongest(t *testing.T) {
	l := NewLimiter(1000, 10)
	l.Pause("h", time.Hour)
	l.Pause("h", time.Millisecond)
	l.Pause("h", 0)

	l.mu.Lock()
	until := l.pausedUntil["h"]
	l.mu.Unlock()
	if time.Until(until) < 50*time.Minute {
		t.Errorf("shorter pause should not shorten the current one: %v", time.Until(until))
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(1000, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = l.WaitHost(ctx, host)
			}
		}(fmt.Sprintf("host%d", i))
	}
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.perHost) != 10 {
		t.Errorf("host count = %d, want 10", len(l.perHost))
	}
}
