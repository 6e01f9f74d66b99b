package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"marker not found", MarkerNotFound(`"user":{`), ErrMarkerNotFound, true},
		{"marker is not malformed", MarkerNotFound(`"user":{`), ErrMalformedJSON, false},
		{"malformed json", MalformedJSON(errors.New("eof")), ErrMalformedJSON, true},
		{"no more pages", &FetchError{Reason: FetchNoMorePages}, ErrNoMorePages, true},
		{"fetch transport", &FetchError{Reason: FetchTransport, Status: 500}, ErrTransport, true},
		{"malformed response", &FetchError{Reason: FetchMalformedResponse}, ErrMalformedResponse, true},
		{"transport", &TransportError{URL: "u", Status: 404}, ErrTransport, true},
		{"wrapped", fmt.Errorf("building profile: %w", MarkerNotFound("x")), ErrMarkerNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(MarkerNotFound("x")))
	assert.False(t, IsRetryable(MalformedJSON(errors.New("bad"))))
	assert.False(t, IsRetryable(&FetchError{Reason: FetchNoMorePages}))
	assert.True(t, IsRetryable(&FetchError{Reason: FetchMalformedResponse}))
	assert.True(t, IsRetryable(&FetchError{Reason: FetchTransport, Status: 0}))
	assert.True(t, IsRetryable(&FetchError{Reason: FetchTransport, Status: 503}))
	assert.False(t, IsRetryable(&FetchError{Reason: FetchTransport, Status: 404}))
	assert.True(t, IsRetryable(&TransportError{Status: 429}))
	assert.False(t, IsRetryable(&TransportError{Status: 401}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `extract marker_not_found (marker "abc")`, MarkerNotFound("abc").Error())
	assert.Equal(t, "fetch no_more_pages (status 0)", (&FetchError{Reason: FetchNoMorePages}).Error())
	assert.Contains(t, (&TransportError{URL: "https://x", Status: 500}).Error(), "status 500")
}
