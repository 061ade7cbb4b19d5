package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/expensy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		failWith  error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", attempts: 3, wantCalls: 1},
		{name: "succeeds after failures", failures: 2, failWith: errBoom, attempts: 3, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, failWith: errBoom, attempts: 3, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "stops on non-retryable",
			failures:  5,
			failWith:  &RetryableError{Err: errBoom, Retryable: false},
			attempts:  3,
			wantCalls: 1,
			wantErr:   errBoom,
		},
		{name: "stops on cancellation", failures: 5, failWith: context.Canceled, attempts: 3, wantCalls: 1, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := NewUserError("Could not save session", errors.New("disk full"))

	assert.Equal(t, "Could not save session", UserMessage(wrapped))
	assert.Equal(t, "Could not save session: disk full", wrapped.Error())
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(errors.New("x")))
}
