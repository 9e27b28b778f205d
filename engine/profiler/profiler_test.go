package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	p := NewProfiler(time.Second)
	start := time.Unix(0, 0)
	p.lastTime = start

	clock := start
	p.now = func() time.Time { return clock }

	for i := 0; i < 59; i++ {
		clock = clock.Add(16 * time.Millisecond)
		_, ok := p.Tick()
		require.False(t, ok)
	}

	clock = start.Add(time.Second)
	stats, ok := p.Tick()
	require.True(t, ok)
	assert.InDelta(t, 60, stats.FPS, 1e-9)
	assert.Equal(t, time.Second/60, stats.FrameTime)
	assert.Greater(t, stats.SysMB, 0.0)

	_, ok = p.Tick()
	assert.False(t, ok, "a new window starts after reporting")
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}
