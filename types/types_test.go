package types

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveStatus_ExpiryIsClockOnly(t *testing.T) {
	now := time.Now()
	intent := &PaymentIntent{
		UID:      "order-1",
		Status:   StatusPending,
		Deadline: now.Add(-time.Minute).Unix(),
	}

	assert.Equal(t, StatusExpired, intent.EffectiveStatus(now))

	// The stored status never mutates; an earlier clock still sees pending.
	assert.Equal(t, StatusPending, intent.Status)
	assert.Equal(t, StatusPending, intent.EffectiveStatus(now.Add(-2*time.Minute)))
}

func TestEffectiveStatus_OnlyPendingExpires(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour).Unix()

	for _, status := range []IntentStatus{StatusProcessing, StatusCompleted, StatusFailed} {
		intent := &PaymentIntent{Status: status, Deadline: past}
		assert.Equal(t, status, intent.EffectiveStatus(now), "status %s must not expire", status)
	}
}

func TestEffectiveStatus_MissingStatusDefaultsPending(t *testing.T) {
	intent := &PaymentIntent{Deadline: time.Now().Add(time.Hour).Unix()}
	assert.Equal(t, StatusPending, intent.EffectiveStatus(time.Now()))
}

func TestEffectiveStatus_ZeroDeadlineNeverExpires(t *testing.T) {
	intent := &PaymentIntent{Status: StatusPending}
	assert.Equal(t, StatusPending, intent.EffectiveStatus(time.Now().Add(100*time.Hour)))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}

func TestErrorCode_WalksWrappedChain(t *testing.T) {
	base := NewPaymentError(ErrQuoteFailed, "quote fetch failed")
	wrapped := fmt.Errorf("same-chain pay: %w", fmt.Errorf("step: %w", base))

	assert.Equal(t, ErrQuoteFailed, ErrorCode(wrapped))
	assert.Equal(t, ErrQuoteFailed, ErrorCode(base))
}

func TestErrorCode_NoPaymentError(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "", ErrorCode(fmt.Errorf("plain failure")))
}

func TestPaymentError_Format(t *testing.T) {
	err := NewPaymentError(ErrInsufficientBalance, "required %d, available %d", 10, 3)
	require.EqualError(t, err, "INSUFFICIENT_BALANCE: required 10, available 3")
}
