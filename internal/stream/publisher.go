// Package stream distributes snapshots to live web viewers over
// Server-Sent Events.
//
// The Publisher holds the current snapshot behind an atomic pointer —
// exactly one tick writer replaces it, any number of readers load it —
// and fans new snapshots out to per-client channels. Fan-out never
// blocks: a slow client's stale pending snapshot is replaced by the
// newest one, so laggards skip intermediate ticks and always see the
// latest state next.
//
// SSE message format (same wire form as the UDP packet):
//
//	data: {"type":"snapshot","epoch_utc":"2026-08-25T03:10:00Z","sun_alt":-23.1,"is_night":true,"rows":[...]}\n\n
//
// A newly connected client receives the current snapshot immediately,
// then every subsequent snapshot as it is published. Keep-alive comments
// (:\n\n) are sent when no snapshot has gone out within the keep-alive
// interval.
package stream

import (
	"sync"
	"sync/atomic"

	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// Publisher is the single-writer/multi-reader handoff point between the
// tick loop and connected viewers.
type Publisher struct {
	current atomic.Pointer[visibility.Snapshot]

	mu   sync.Mutex
	subs map[chan *visibility.Snapshot]struct{}
}

// NewPublisher creates an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subs: make(map[chan *visibility.Snapshot]struct{}),
	}
}

// Current returns the most recently published snapshot, or nil before the
// first tick completes.
func (p *Publisher) Current() *visibility.Snapshot {
	return p.current.Load()
}

// Publish atomically replaces the current snapshot and offers it to every
// subscriber without blocking. A subscriber that has not drained its
// previous snapshot loses it in favor of the new one.
func (p *Publisher) Publish(s *visibility.Snapshot) {
	p.current.Store(s)

	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- s:
		default:
			// Drop the stale pending snapshot, then retry once. The
			// second send can only fail if the subscriber consumed and
			// refilled concurrently, in which case it already holds a
			// snapshot at least as new as this one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Subscribe registers a new viewer channel with a one-snapshot buffer.
func (p *Publisher) Subscribe() chan *visibility.Snapshot {
	ch := make(chan *visibility.Snapshot, 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes a viewer channel. Safe to call with a channel that
// was never subscribed.
func (p *Publisher) Unsubscribe(ch chan *visibility.Snapshot) {
	p.mu.Lock()
	delete(p.subs, ch)
	p.mu.Unlock()
}

// Subscribers returns the number of registered viewer channels.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
