package services

import (
	"context"
	"time"
)

// Backoff between attempts. Four total tries: one initial plus one retry per
// delay, sleeping only after a failed attempt.
var retryDelays = []time.Duration{
	500 * time.Millisecond,
	1500 * time.Millisecond,
	3500 * time.Millisecond,
}

// retryingLLMClient decorates another LLMClient with a bounded fixed-backoff
// retry policy. Any error triggers a retry; once attempts are exhausted the
// last error is returned as-is.
type retryingLLMClient struct {
	inner  LLMClient
	delays []time.Duration
}

func NewRetryingLLMClient(inner LLMClient) LLMClient {
	return &retryingLLMClient{inner: inner, delays: retryDelays}
}

func (r *retryingLLMClient) Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		result, err := r.inner.Chat(ctx, messages, temperature)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if attempt >= len(r.delays) {
			break
		}
		if !r.wait(ctx, r.delays[attempt]) {
			break
		}
	}

	return "", lastErr
}

func (r *retryingLLMClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		result, err := r.inner.Embed(ctx, text)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if attempt >= len(r.delays) {
			break
		}
		if !r.wait(ctx, r.delays[attempt]) {
			break
		}
	}

	return nil, lastErr
}

// wait sleeps without blocking past context cancellation. Returns false when
// the context ended first.
func (r *retryingLLMClient) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
