package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitDisabledDelay(t *testing.T) {
	l := NewDomainLimiter(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitFirstRequestImmediate(t *testing.T) {
	l := NewDomainLimiter(500 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "https://example.com/a"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitEnforcesDelayPerHost(t *testing.T) {
	delay := 150 * time.Millisecond
	l := NewDomainLimiter(delay)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "https://example.com/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://example.com/b"))
	assert.GreaterOrEqual(t, time.Since(start), delay-20*time.Millisecond)
}

func TestWaitHostsAreIndependent(t *testing.T) {
	l := NewDomainLimiter(time.Second)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "https://a.example.com"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example.com"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitHostCaseInsensitive(t *testing.T) {
	l := NewDomainLimiter(200 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "https://Example.COM/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://example.com/b"))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestWaitContextCancellation(t *testing.T) {
	l := NewDomainLimiter(time.Minute)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "https://example.com/a"))

	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := l.Wait(cancelled, "https://example.com/b")
	assert.Error(t, err)
}
