package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyLLM fails a fixed number of times before succeeding. Each failure
// carries its attempt number so tests can check which error surfaces.
type flakyLLM struct {
	failures   int
	chatCalls  int
	embedCalls int
}

func (f *flakyLLM) Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	f.chatCalls++
	if f.chatCalls <= f.failures {
		return "", fmt.Errorf("chat attempt %d failed", f.chatCalls)
	}
	return "ok", nil
}

func (f *flakyLLM) Embed(ctx context.Context, text string) ([]float64, error) {
	f.embedCalls++
	if f.embedCalls <= f.failures {
		return nil, fmt.Errorf("embed attempt %d failed", f.embedCalls)
	}
	return []float64{0.1, 0.2}, nil
}

func noDelays() []time.Duration {
	return []time.Duration{0, 0, 0}
}

func TestRetryChatSucceedsWithinBudget(t *testing.T) {
	inner := &flakyLLM{failures: 2}
	client := &retryingLLMClient{inner: inner, delays: noDelays()}

	result, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, inner.chatCalls)
}

func TestRetryChatExhaustionReturnsLastError(t *testing.T) {
	inner := &flakyLLM{failures: 10}
	client := &retryingLLMClient{inner: inner, delays: noDelays()}

	_, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, 0.2)
	require.Error(t, err)
	assert.EqualError(t, err, "chat attempt 4 failed")
	assert.Equal(t, 4, inner.chatCalls)
}

func TestRetryEmbedSucceedsWithinBudget(t *testing.T) {
	inner := &flakyLLM{failures: 2}
	client := &retryingLLMClient{inner: inner, delays: noDelays()}

	vector, err := client.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vector)
	assert.Equal(t, 3, inner.embedCalls)
}

func TestRetryEmbedExhaustionReturnsLastError(t *testing.T) {
	inner := &flakyLLM{failures: 10}
	client := &retryingLLMClient{inner: inner, delays: noDelays()}

	_, err := client.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.EqualError(t, err, "embed attempt 4 failed")
	assert.Equal(t, 4, inner.embedCalls)
}

func TestRetryStopsWaitingOnCancelledContext(t *testing.T) {
	inner := &flakyLLM{failures: 10}
	client := &retryingLLMClient{inner: inner, delays: []time.Duration{time.Hour}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := client.Chat(ctx, []ChatMessage{{Role: RoleUser, Content: "hi"}}, 0.2)
	require.Error(t, err)
	assert.EqualError(t, err, "chat attempt 1 failed")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryDefaultDelays(t *testing.T) {
	expected := []time.Duration{
		500 * time.Millisecond,
		1500 * time.Millisecond,
		3500 * time.Millisecond,
	}
	assert.Equal(t, expected, retryDelays)
}
