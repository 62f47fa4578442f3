package client

import (
	"sync"
	"time"
)

// DefaultPollPeriod is how often a mounted poller asks its view to refresh.
const DefaultPollPeriod = 3 * time.Second

// Poller triggers a refresh callback on a fixed period. It does no fetching
// of its own and never stops itself; the owner must call Stop on teardown.
type Poller struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Mount starts a poller that calls refresh every period. Calls are made from
// a single goroutine, one at a time; ticks missed during a slow refresh are
// dropped.
func Mount(period time.Duration, refresh func()) *Poller {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	p := &Poller{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.loop(period, refresh)
	return p
}

func (p *Poller) loop(period time.Duration, refresh func()) {
	defer close(p.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			// A stop racing with a tick wins.
			select {
			case <-p.stop:
				return
			default:
			}
			refresh()
		}
	}
}

// Stop cancels the timer and waits for an in-progress refresh to return. It
// is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}
