package resilience

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     time.Millisecond,
	Multiplier:     1,
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastRetry, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return NewTransientError(eris.New("status 503"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := eris.New("status 400")
	attempts := 0
	err := Do(context.Background(), fastRetry, func(context.Context) error {
		attempts++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts, "non-transient errors are not retried")
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastRetry, func(context.Context) error {
		attempts++
		return NewTransientError(eris.New("status 500"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, fastRetry, func(context.Context) error {
		attempts++
		cancel()
		return NewTransientError(eris.New("status 500"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoValReturnsValue(t *testing.T) {
	v, err := DoVal(context.Background(), fastRetry, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestOnRetryCallback(t *testing.T) {
	cfg := fastRetry
	var retries []int
	cfg.OnRetry = func(attempt int, err error) { retries = append(retries, attempt) }

	_ = Do(context.Background(), cfg, func(context.Context) error {
		return NewTransientError(eris.New("status 502"), 502)
	})
	assert.Equal(t, []int{1, 2}, retries)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("status 400")))
	assert.True(t, IsTransient(NewTransientError(eris.New("status 429"), 429)))
	assert.True(t, IsTransient(eris.Wrap(NewTransientError(eris.New("x"), 500), "outer")))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
