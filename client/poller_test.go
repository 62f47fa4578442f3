package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerStopBeforeFirstTick(t *testing.T) {
	var calls atomic.Int32
	p := Mount(50*time.Millisecond, func() { calls.Add(1) })
	p.Stop()

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestPollerRefreshCount(t *testing.T) {
	const period = 100 * time.Millisecond
	var calls atomic.Int32
	p := Mount(period, func() { calls.Add(1) })

	time.Sleep(550 * time.Millisecond)
	p.Stop()
	n := calls.Load()

	// 550ms over a 100ms period is five ticks, give or take one.
	assert.GreaterOrEqual(t, n, int32(4))
	assert.LessOrEqual(t, n, int32(6))

	time.Sleep(2 * period)
	assert.Equal(t, n, calls.Load(), "refresh ran after Stop")
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := Mount(10*time.Millisecond, func() {})
	p.Stop()
	p.Stop()
}

func TestPollerStopWaitsForRefresh(t *testing.T) {
	entered := make(chan struct{})
	var finished atomic.Bool
	p := Mount(10*time.Millisecond, func() {
		select {
		case <-entered:
			return
		default:
			close(entered)
		}
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-entered
	p.Stop()
	assert.True(t, finished.Load())
}

func TestPollerDefaultPeriod(t *testing.T) {
	var calls atomic.Int32
	p := Mount(0, func() { calls.Add(1) })
	time.Sleep(50 * time.Millisecond)
	p.Stop()
	assert.Equal(t, int32(0), calls.Load())
}
