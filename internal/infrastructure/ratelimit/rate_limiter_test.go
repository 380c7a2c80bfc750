package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	bucket := NewTokenBucket(2, 1, time.Minute)

	allowed, _ := bucket.Allow()
	assert.True(t, allowed)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed)

	allowed, wait := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestRateLimiterIsolatesParticipants(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 20; i++ {
		allowed, _ := rl.Allow("station-1", "send_message")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("station-1", "send_message")
	assert.False(t, allowed)

	// A different participant has its own bucket
	allowed, _ = rl.Allow("station-2", "send_message")
	assert.True(t, allowed)
}
