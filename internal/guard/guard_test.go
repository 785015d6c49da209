package guard

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dentavia/case-api/pkg/logger"
)

func newTestGuard(cfg Config) *Guard {
	return New(cfg, logger.NewLogger(&logger.Config{Output: io.Discard}))
}

func TestCheckHoneypot(t *testing.T) {
	g := newTestGuard(DefaultConfig())

	result := g.Check(Request{Honeypot: "http://spam.example", ClientKey: "c1"})
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonSpam, result.Reason)
	// The copy must read like a success so bots learn nothing.
	assert.Equal(t, "Thanks, we received your request.", result.Message)
}

func TestCheckTooFast(t *testing.T) {
	g := newTestGuard(DefaultConfig())
	now := time.Now()
	g.now = func() time.Time { return now }

	result := g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-time.Second)})
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonTooFast, result.Reason)

	result = g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-3 * time.Second)})
	assert.True(t, result.Allowed)
}

func TestCheckMissingOpenTimeRejected(t *testing.T) {
	g := newTestGuard(DefaultConfig())

	result := g.Check(Request{ClientKey: "c1"})
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonTooFast, result.Reason)
}

func TestRateLimitWindow(t *testing.T) {
	g := newTestGuard(Config{Window: 10 * time.Minute, MaxPerWindow: 3})
	now := time.Now()
	g.now = func() time.Time { return now }

	opened := now.Add(-time.Minute)
	for i := 0; i < 3; i++ {
		result := g.Check(Request{ClientKey: "c1", FormOpenedAt: opened})
		assert.True(t, result.Allowed, "attempt %d should pass", i+1)
		g.Commit("c1")
	}

	result := g.Check(Request{ClientKey: "c1", FormOpenedAt: opened})
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonRateLimit, result.Reason)

	// Other clients are unaffected.
	result = g.Check(Request{ClientKey: "c2", FormOpenedAt: opened})
	assert.True(t, result.Allowed)

	// Once the window slides past the attempts the client may submit again.
	now = now.Add(11 * time.Minute)
	result = g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-time.Minute)})
	assert.True(t, result.Allowed)
}

func TestQuotaOnlyBurnsOnCommit(t *testing.T) {
	g := newTestGuard(Config{Window: 10 * time.Minute, MaxPerWindow: 1})
	now := time.Now()
	g.now = func() time.Time { return now }

	// Rejected attempts do not consume quota.
	for i := 0; i < 5; i++ {
		result := g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-time.Second)})
		assert.Equal(t, ReasonTooFast, result.Reason)
	}

	result := g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-time.Minute)})
	assert.True(t, result.Allowed)
	g.Commit("c1")

	result = g.Check(Request{ClientKey: "c1", FormOpenedAt: now.Add(-time.Minute)})
	assert.Equal(t, ReasonRateLimit, result.Reason)
}
