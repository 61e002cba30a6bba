package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlacklistCleanup(t *testing.T) {
	BlacklistToken("expired-token", time.Now().Add(-time.Minute))
	BlacklistToken("live-token", time.Now().Add(time.Hour))

	assert.True(t, IsTokenBlacklisted("expired-token"))
	assert.True(t, IsTokenBlacklisted("live-token"))

	removeExpiredTokens(time.Now())

	assert.False(t, IsTokenBlacklisted("expired-token"))
	assert.True(t, IsTokenBlacklisted("live-token"))
}
