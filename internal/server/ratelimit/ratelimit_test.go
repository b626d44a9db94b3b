package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFrozenLimiter returns a limiter whose clock only moves when the test
// advances it.
func newFrozenLimiter(cfg *Config) (*Limiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(cfg)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, 6.0, info.RetryAfter.Seconds(), 0.01, "one token per window/limit")
	assert.True(t, info.ResetTime.After(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func TestLimiter_Refill(t *testing.T) {
	l, now := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 2, DefaultWindow: 2 * time.Second})
	defer l.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("c", "/x", "GET")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	*now = now.Add(time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed, "one token refilled after one second")
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	l, now := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Second})
	defer l.Stop()

	allowed, _ := l.Allow("c", "/x", "GET")
	require.True(t, allowed)
	for i := 0; i < 5; i++ {
		allowed, _ = l.Allow("c", "/x", "GET")
		require.False(t, allowed)
	}

	*now = now.Add(time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistBlacklist(t *testing.T) {
	l, _ := newFrozenLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer l.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := l.Allow("10.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	allowed, _ := l.Allow("10.0.0.2", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := l.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	l, _ := newFrozenLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer l.Stop()

	path := "/campaigns/c1/generate/day"
	for i := 0; i < 2; i++ {
		allowed, info := l.Allow("127.0.0.1", path, "POST")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, _ := l.Allow("127.0.0.1", path, "POST")
	assert.False(t, allowed, "burst of 2 exhausted")

	allowed, info := l.Allow("127.0.0.1", "/campaigns/c1/generate", "POST")
	assert.True(t, allowed, "single generation has its own bucket")
	assert.Equal(t, 60, info.Limit)

	allowed, info = l.Allow("127.0.0.1", "/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	l, _ := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer l.Stop()

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("127.0.0.1", "/test", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_RemoveIdle(t *testing.T) {
	l, now := newFrozenLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i), "/test", "GET")
	}
	*now = now.Add(2 * time.Hour)
	for i := 0; i < 4; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i), "/test", "GET")
	}

	removed := l.removeIdle(now.Add(-time.Hour))
	assert.Equal(t, 6, removed)
	assert.Len(t, l.buckets, 4)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()
	defer l.Stop()

	allowed, info := l.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/campaigns/*/generate/day", Method: "POST", Limit: 1},
		{Path: "/campaigns/*/generate", Method: "POST", Limit: 2},
		{Path: "/tasks/", Method: "GET", Limit: 3},
	}

	tests := []struct {
		name   string
		path   string
		method string
		limit  int
		found  bool
	}{
		{name: "day batch", path: "/campaigns/abc/generate/day", method: "POST", limit: 1, found: true},
		{name: "single", path: "/campaigns/abc/generate", method: "POST", limit: 2, found: true},
		{name: "prefix", path: "/tasks/t-1/stream", method: "GET", limit: 3, found: true},
		{name: "wrong method", path: "/campaigns/abc/generate", method: "GET"},
		{name: "empty segment", path: "/campaigns//generate", method: "POST"},
		{name: "health", path: "/health", method: "GET", limit: 0, found: true},
		{name: "unknown", path: "/nope", method: "GET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if !tt.found {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.limit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", "1.1.1.1, 2.2.2.2")
	t.Setenv("RATE_LIMIT_GENERATE_PER_HOUR", "3")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	for _, ec := range cfg.EndpointConfigs {
		if ec.Method == "POST" {
			assert.Equal(t, 3, ec.Limit, ec.Path)
		}
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
