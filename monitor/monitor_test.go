package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"skylog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoster struct {
	calls atomic.Int32
}

func (p *countingPoster) SendMetrics(ctx context.Context, snap models.MetricsSnapshot) error {
	p.calls.Add(1)
	return nil
}

func TestMonitor_PushesImmediatelyAndPeriodically(t *testing.T) {
	poster := &countingPoster{}
	m := New(poster, 20*time.Millisecond)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return poster.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond, "initial push plus at least one tick")
}

func TestMonitor_StopHaltsLoop(t *testing.T) {
	poster := &countingPoster{}
	m := New(poster, 10*time.Millisecond)

	m.Start()
	require.Eventually(t, func() bool {
		return poster.calls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	settled := poster.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, poster.calls.Load())
}

func TestCollect(t *testing.T) {
	snap, err := Collect()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, snap.CPU, float64(0))
	assert.LessOrEqual(t, snap.CPU, float64(100))
	assert.GreaterOrEqual(t, snap.Memory, float64(0))
	assert.LessOrEqual(t, snap.Memory, float64(100))
	assert.Greater(t, snap.MemoryUsedGB, float64(0))
}
