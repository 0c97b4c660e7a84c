package storage

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/reportstack/report-file-api/internal/infrastructure/metrics"
)

// Throttled wraps a Backend so that at most maxConcurrent SDK calls run at
// once and every call carries a deadline. Backend SDKs block on network I/O;
// the gate keeps them from starving concurrent request handling.
type Throttled struct {
	inner   Backend
	sem     *semaphore.Weighted
	timeout time.Duration
}

// Throttle builds the bounded wrapper around backend.
func Throttle(backend Backend, maxConcurrent int64, timeout time.Duration) *Throttled {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Throttled{
		inner:   backend,
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
	}
}

func (t *Throttled) Type() string { return t.inner.Type() }

func (t *Throttled) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, transferError(ctx, "storage operation queue cancelled", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	return callCtx, cancel, nil
}

func (t *Throttled) release(cancel context.CancelFunc) {
	cancel()
	t.sem.Release(1)
}

func (t *Throttled) Upload(ctx context.Context, localPath, storageKey, contentType string) (string, error) {
	callCtx, cancel, err := t.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer t.release(cancel)

	start := time.Now()
	key, err := t.inner.Upload(callCtx, localPath, storageKey, contentType)
	metrics.RecordStorageOperation(t.inner.Type(), "upload", opStatus(err), time.Since(start).Seconds())
	return key, err
}

func (t *Throttled) Presign(ctx context.Context, storageKey string, ttl time.Duration, overrides *ResponseOverrides) (string, error) {
	callCtx, cancel, err := t.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer t.release(cancel)

	start := time.Now()
	url, err := t.inner.Presign(callCtx, storageKey, ttl, overrides)
	metrics.RecordStorageOperation(t.inner.Type(), "presign", opStatus(err), time.Since(start).Seconds())
	return url, err
}

func (t *Throttled) Delete(ctx context.Context, storageKey string) (bool, error) {
	callCtx, cancel, err := t.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer t.release(cancel)

	start := time.Now()
	existed, err := t.inner.Delete(callCtx, storageKey)
	metrics.RecordStorageOperation(t.inner.Type(), "delete", opStatus(err), time.Since(start).Seconds())
	return existed, err
}

func (t *Throttled) Stat(ctx context.Context, storageKey string) (*ObjectInfo, error) {
	callCtx, cancel, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.release(cancel)

	start := time.Now()
	info, err := t.inner.Stat(callCtx, storageKey)
	metrics.RecordStorageOperation(t.inner.Type(), "stat", opStatus(err), time.Since(start).Seconds())
	return info, err
}

func (t *Throttled) Exists(ctx context.Context, storageKey string) (bool, error) {
	callCtx, cancel, err := t.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer t.release(cancel)

	start := time.Now()
	exists, err := t.inner.Exists(callCtx, storageKey)
	metrics.RecordStorageOperation(t.inner.Type(), "exists", opStatus(err), time.Since(start).Seconds())
	return exists, err
}

func opStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
