package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingBackend tracks the peak number of in-flight calls.
type countingBackend struct {
	mu      sync.Mutex
	current int
	peak    int
	calls   atomic.Int64
}

func (c *countingBackend) enter() {
	c.mu.Lock()
	c.current++
	if c.current > c.peak {
		c.peak = c.current
	}
	c.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	c.mu.Lock()
	c.current--
	c.mu.Unlock()
	c.calls.Add(1)
}

func (c *countingBackend) Type() string { return "counting" }

func (c *countingBackend) Upload(context.Context, string, string, string) (string, error) {
	c.enter()
	return "key", nil
}

func (c *countingBackend) Presign(context.Context, string, time.Duration, *ResponseOverrides) (string, error) {
	c.enter()
	return "https://example.com/key", nil
}

func (c *countingBackend) Delete(context.Context, string) (bool, error) {
	c.enter()
	return true, nil
}

func (c *countingBackend) Stat(context.Context, string) (*ObjectInfo, error) {
	c.enter()
	return &ObjectInfo{}, nil
}

func (c *countingBackend) Exists(context.Context, string) (bool, error) {
	c.enter()
	return true, nil
}

func TestThrottleBoundsConcurrency(t *testing.T) {
	inner := &countingBackend{}
	const limit = 3
	throttled := Throttle(inner, limit, time.Second)

	const n = 24
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := throttled.Upload(context.Background(), "/tmp/x", "key", "application/pdf"); err != nil {
				t.Errorf("upload: %v", err)
			}
		}()
	}
	wg.Wait()

	if inner.calls.Load() != n {
		t.Errorf("calls = %d, want %d", inner.calls.Load(), n)
	}
	if inner.peak > limit {
		t.Errorf("peak concurrency %d exceeded limit %d", inner.peak, limit)
	}
}

func TestThrottleRespectsCancelledContext(t *testing.T) {
	throttled := Throttle(&countingBackend{}, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := throttled.Presign(ctx, "key", time.Minute, nil); err == nil {
		t.Fatal("expected error presigning with cancelled context")
	}
}

func TestThrottleDefaults(t *testing.T) {
	throttled := Throttle(&countingBackend{}, 0, 0)
	if throttled.timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", throttled.timeout)
	}
	if _, err := throttled.Exists(context.Background(), "key"); err != nil {
		t.Errorf("exists with defaults: %v", err)
	}
}

func TestThrottleDelegatesType(t *testing.T) {
	throttled := Throttle(&countingBackend{}, 2, time.Second)
	if throttled.Type() != "counting" {
		t.Errorf("Type() = %q, want counting", throttled.Type())
	}
}
