package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"repoguardian/internal/pipeline"
)

// unknownRemaining means no rate-limit headers have been seen yet, or the
// reset time passed and the next response will tell.
const unknownRemaining = -1

// RequestBudget tracks the GitHub REST rate limit for one analysis. It blocks
// callers through short Retry-After cooldowns and rate-limit windows that
// reset soon, and fails fast when the wait would exceed maxWait.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	maxWait   time.Duration
	now       func() time.Time
	notifyCh  chan struct{}
}

func NewRequestBudget(maxWait time.Duration) *RequestBudget {
	return &RequestBudget{
		remaining: unknownRemaining,
		maxWait:   maxWait,
		now:       time.Now,
		notifyCh:  make(chan struct{}),
	}
}

// Remaining returns the last observed remaining count, or -1 when unknown.
func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire takes one request from the budget.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Acquire: nil context")
	}
	if b == nil || b.now == nil || b.notifyCh == nil {
		return fmt.Errorf("Acquire: RequestBudget not initialized (use NewRequestBudget)")
	}

	for {
		b.mu.Lock()
		now := b.now()

		var until time.Time
		switch {
		case now.Before(b.cooldown):
			until = b.cooldown
		case b.remaining == unknownRemaining:
			b.mu.Unlock()
			return nil
		case b.remaining > 0:
			b.remaining--
			b.mu.Unlock()
			return nil
		case !now.Before(b.reset):
			// The window reset; let requests through until a response says otherwise.
			b.remaining = unknownRemaining
			b.mu.Unlock()
			return nil
		default:
			until = b.reset
		}

		wait := until.Sub(now)
		ch := b.notifyCh
		b.mu.Unlock()

		if wait > b.maxWait {
			return pipeline.Failure(pipeline.KindNetwork,
				"GitHub API rate limit exhausted until %s", until.UTC().Format(time.RFC3339))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-ch:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (b *RequestBudget) signalLocked() {
	close(b.notifyCh)
	b.notifyCh = make(chan struct{})
}

// UpdateFromResponse records the rate-limit headers of resp and wakes any
// waiters when the budget changed.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if b == nil || resp == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := b.now().Add(time.Duration(seconds) * time.Second)
			if until.After(b.cooldown) {
				b.cooldown = until
				changed = true
			}
		}
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil && val >= 0 && b.remaining != val {
			b.remaining = val
			changed = true
		}
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil && val > 0 {
			if newReset := time.Unix(val, 0); !b.reset.Equal(newReset) {
				b.reset = newReset
				changed = true
			}
		}
	}

	if changed {
		b.signalLocked()
	}
}
