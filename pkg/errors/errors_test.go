package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoutErrorMessage(t *testing.T) {
	cause := stderrors.New("timeout")

	err := NewCollection("AMAZON_IN", "fetch failed", cause)
	assert.Equal(t, "[collection] AMAZON_IN: fetch failed - timeout", err.Error())
	assert.Equal(t, cause, err.Unwrap())

	cfgErr := NewConfiguration("item name is required", nil)
	assert.Equal(t, "[configuration] item name is required", cfgErr.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("x", "dial", nil).IsRetryable())
	assert.True(t, NewCollection("x", "cell", nil).IsRetryable())
	assert.False(t, NewRateLimit("x", time.Minute).IsRetryable())
	assert.False(t, NewConfiguration("bad", nil).IsRetryable())
}

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", NewConfiguration("missing", nil))
	assert.True(t, Is(wrapped, ErrorTypeConfiguration))
	assert.False(t, Is(wrapped, ErrorTypeCollection))
	assert.False(t, Is(stderrors.New("plain"), ErrorTypeConfiguration))
}

func TestIsWalksNestedScoutErrors(t *testing.T) {
	err := NewCollection("FLIPKART", "fetch", fmt.Errorf("attempt: %w", NewRateLimit("flipkart_rate_limited", time.Minute)))
	assert.True(t, Is(err, ErrorTypeCollection))
	assert.True(t, Is(err, ErrorTypeRateLimit))
	assert.False(t, Is(err, ErrorTypeNetwork))
	assert.False(t, Is(nil, ErrorTypeRateLimit))
}
