package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

var transient = &errs.FetchError{Reason: errs.FetchTransport, Status: 503}

func TestRetryWithSuccess(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	calls := 0
	log := logger.NewTestLogger()
	cfg := fastConfig(2)
	cfg.Logger = log

	err := Do(context.Background(), func() error {
		calls++
		return transient
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
	assert.True(t, log.HasMessage("retrying operation"))
	assert.True(t, log.HasMessage("max retry attempts exceeded"))
}

func TestRetryWithNonRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"marker not found", errs.MarkerNotFound(`"user":{`)},
		{"not found status", &errs.TransportError{Status: 404}},
		{"no more pages", &errs.FetchError{Reason: errs.FetchNoMorePages}},
		{"plain error", errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), func() error {
				calls++
				return tt.err
			}, fastConfig(5))

			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.err, err)
		})
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, func() error {
			calls++
			return transient
		}, cfg)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", &errs.FetchError{Reason: errs.FetchMalformedResponse}
		}
		return "page", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "page", got)
	assert.Equal(t, 2, calls)
}

func TestSingleAttemptDisablesRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return transient
	}, fastConfig(1))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(&errs.TransportError{Err: context.DeadlineExceeded}))
	assert.True(t, DefaultRetryIf(&errs.TransportError{Status: 0}))
	assert.True(t, DefaultRetryIf(transient))
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RetryConfig{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: time.Minute}, nil)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, time.Minute, cfg.MaxDelay)
	assert.NotNil(t, cfg.RetryIf)
}
