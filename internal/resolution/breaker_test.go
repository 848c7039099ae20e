package resolution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerLifecycle(t *testing.T) {
	now := time.Now()
	b := NewCircuitBreaker("test", time.Minute)
	b.now = func() time.Time { return now }

	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow(), "open breaker rejects before cooldown")

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow(), "still within cooldown")

	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed admits one probe")
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.False(t, b.Allow(), "only one probe in flight")

	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestCircuitBreakerProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewCircuitBreaker("test", time.Minute)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow(), "failed probe restarts the cooldown")

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
}

func TestCircuitBreakerDefaultCooldown(t *testing.T) {
	b := NewCircuitBreaker("test", 0)
	assert.Equal(t, time.Minute, b.cooldown)
	assert.Equal(t, "test", b.Name())
}
