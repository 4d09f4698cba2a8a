package fetcher

import (
	"context"
	"net/http"
	"testing"
	"time"

	"repoguardian/internal/pipeline"
)

func TestRequestBudget(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	newBudget := func(maxWait time.Duration) *RequestBudget {
		b := NewRequestBudget(maxWait)
		b.now = func() time.Time { return fixedNow }
		return b
	}

	getRemaining := func(t *testing.T, b *RequestBudget) int {
		t.Helper()
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.remaining
	}

	setState := func(t *testing.T, b *RequestBudget, remaining int, reset time.Time) {
		t.Helper()
		b.mu.Lock()
		b.remaining = remaining
		b.reset = reset
		b.mu.Unlock()
	}

	headers := func(kv ...string) *http.Response {
		resp := &http.Response{Header: make(http.Header)}
		for i := 0; i+1 < len(kv); i += 2 {
			resp.Header.Set(kv[i], kv[i+1])
		}
		return resp
	}

	t.Run("unknown budget allows requests", func(t *testing.T) {
		b := newBudget(time.Second)
		for i := 0; i < 3; i++ {
			if err := b.Acquire(context.Background()); err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
		}
		if rem := b.Remaining(); rem != unknownRemaining {
			t.Fatalf("expected unknown remaining, got %d", rem)
		}
	})

	t.Run("UpdateFromResponse sets remaining and reset", func(t *testing.T) {
		b := newBudget(time.Second)
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "10", "X-RateLimit-Reset", "1700000000"))

		if rem := getRemaining(t, b); rem != 10 {
			t.Fatalf("expected 10 remaining, got %d", rem)
		}
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if rem := getRemaining(t, b); rem != 9 {
			t.Fatalf("expected 9 remaining after Acquire, got %d", rem)
		}
		b.mu.Lock()
		reset := b.reset
		b.mu.Unlock()
		if !reset.Equal(time.Unix(1700000000, 0)) {
			t.Fatalf("unexpected reset %v", reset)
		}
	})

	t.Run("UpdateFromResponse ignores invalid headers", func(t *testing.T) {
		b := newBudget(time.Second)
		setState(t, b, 7, time.Unix(123, 0))
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "nope", "X-RateLimit-Reset", "not-a-time", "Retry-After", "-4"))

		if rem := getRemaining(t, b); rem != 7 {
			t.Fatalf("expected remaining to stay 7, got %d", rem)
		}
	})

	t.Run("Retry-After extends cooldown", func(t *testing.T) {
		b := newBudget(time.Second)
		b.UpdateFromResponse(headers("Retry-After", "10"))
		b.UpdateFromResponse(headers("Retry-After", "60"))
		b.UpdateFromResponse(headers("Retry-After", "5"))

		b.mu.Lock()
		cooldown := b.cooldown
		b.mu.Unlock()
		if !cooldown.Equal(fixedNow.Add(60 * time.Second)) {
			t.Fatalf("expected cooldown %v, got %v", fixedNow.Add(60*time.Second), cooldown)
		}
	})

	t.Run("long cooldown fails fast as network error", func(t *testing.T) {
		b := newBudget(time.Second)
		b.UpdateFromResponse(headers("Retry-After", "60"))

		err := b.Acquire(context.Background())
		if pipeline.KindOf(err) != pipeline.KindNetwork {
			t.Fatalf("expected NetworkError, got %v", err)
		}
	})

	t.Run("exhausted until far reset fails fast", func(t *testing.T) {
		b := newBudget(time.Minute)
		setState(t, b, 0, fixedNow.Add(time.Hour))

		if err := b.Acquire(context.Background()); pipeline.KindOf(err) != pipeline.KindNetwork {
			t.Fatalf("expected NetworkError, got %v", err)
		}
	})

	t.Run("exhausted waits for near reset and honors context", func(t *testing.T) {
		b := newBudget(time.Hour)
		setState(t, b, 0, fixedNow.Add(time.Minute))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := b.Acquire(ctx); err != context.DeadlineExceeded {
			t.Fatalf("expected context deadline exceeded, got %v", err)
		}
	})

	t.Run("after reset requests flow again", func(t *testing.T) {
		b := newBudget(time.Second)
		setState(t, b, 0, fixedNow.Add(-time.Second))

		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("expected Acquire to succeed after reset, got %v", err)
		}
		if rem := getRemaining(t, b); rem != unknownRemaining {
			t.Fatalf("expected unknown remaining after reset, got %d", rem)
		}
	})

	t.Run("UpdateFromResponse wakes waiters", func(t *testing.T) {
		b := newBudget(time.Hour)
		setState(t, b, 0, fixedNow.Add(time.Minute))

		errCh := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			errCh <- b.Acquire(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "1"))

		if err := <-errCh; err != nil {
			t.Fatalf("expected Acquire to succeed after update, got %v", err)
		}
	})

	t.Run("invalid inputs fail fast", func(t *testing.T) {
		var nilCtx context.Context
		if err := newBudget(time.Second).Acquire(nilCtx); err == nil {
			t.Fatal("expected error for nil context")
		}
		var nilBudget *RequestBudget
		if err := nilBudget.Acquire(context.Background()); err == nil {
			t.Fatal("expected error for nil budget")
		}
	})
}
