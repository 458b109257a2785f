package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
	assert.False(t, rl.IsBanned("1.2.3.4"))
}

func TestRateLimiter_BansOverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.IsBanned("1.2.3.4"))

	// Other IPs are unaffected
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.False(t, rl.IsBanned("5.6.7.8"))
}

func TestOriginChecker_AllowAll(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"*"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	assert.True(t, oc.Check(r))
}

func TestOriginChecker_Whitelist(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"https://mus.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://mus.example.com")
	assert.True(t, oc.Check(r))

	// Comparison is case-insensitive
	r.Header.Set("Origin", "HTTPS://MUS.EXAMPLE.COM")
	assert.True(t, oc.Check(r))

	r.Header.Set("Origin", "https://other.example.com")
	assert.False(t, oc.Check(r))
}

func TestOriginChecker_NoOriginHeader(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"https://mus.example.com"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, oc.Check(r), "same-origin and native clients send no Origin header")
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(4)

	for i := 0; i < 4; i++ {
		allowed, _ := ml.AllowMessage("c1")
		assert.True(t, allowed)
	}

	allowed, warning := ml.AllowMessage("c1")
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.GetWarningCount("c1"))

	ml.RemoveClient("c1")
	assert.Zero(t, ml.GetWarningCount("c1"))
}

func TestMessageRateLimiter_WarnsNearLimit(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(10)

	var warned bool
	for i := 0; i < 8; i++ {
		allowed, warning := ml.AllowMessage("c1")
		assert.True(t, allowed)
		warned = warned || warning
	}
	assert.True(t, warned)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "20.0.0.2")
	assert.Equal(t, "20.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "30.0.0.3, 40.0.0.4")
	assert.Equal(t, "30.0.0.3", GetClientIP(r))
}

func TestGenerateNickname(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := GenerateNickname()
		assert.NotEmpty(t, name)
		seen[name] = true
	}
	assert.Greater(t, len(seen), 1, "nicknames should vary")
}
