// Package panel runs the front panel poll loop. A Source is polled at a
// fixed interval and every discrete button event it reports is forwarded on
// a bounded queue to the dispatcher.
package panel

import (
	"context"
	"sync/atomic"
	"time"

	"benchpsu-go/types"

	"github.com/rs/zerolog"
)

// Source reports button events that happened since the previous poll by
// appending them to dst.
type Source interface {
	Poll(dst []types.InterfaceEvent) []types.InterfaceEvent
}

type Config struct {
	// Interval between polls. Default 10 ms.
	Interval time.Duration
	// QueueLen bounds the event queue. Default 32.
	QueueLen int
	Logger   zerolog.Logger
}

type Poller struct {
	src      Source
	interval time.Duration
	out      chan types.InterfaceEvent
	log      zerolog.Logger

	buf     []types.InterfaceEvent
	dropped atomic.Int32
}

func NewPoller(src Source, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Millisecond
	}
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = 32
	}
	return &Poller{
		src:      src,
		interval: cfg.Interval,
		out:      make(chan types.InterfaceEvent, cfg.QueueLen),
		log:      cfg.Logger.With().Str("component", "panel").Logger(),
		buf:      make([]types.InterfaceEvent, 0, 9),
	}
}

// Events is the interface event queue consumed by the dispatcher.
func (p *Poller) Events() <-chan types.InterfaceEvent { return p.out }

// Dropped counts events lost to a full queue. Safe to call while Run is
// polling.
func (p *Poller) Dropped() int { return int(p.dropped.Load()) }

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	tick := time.NewTicker(p.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			p.Step()
		}
	}
}

// Step performs one poll and forwards what it found. An event that does not
// fit in the queue is dropped; the poll loop never blocks on the consumer.
func (p *Poller) Step() {
	p.buf = p.src.Poll(p.buf[:0])
	for _, ev := range p.buf {
		select {
		case p.out <- ev:
			p.log.Debug().Stringer("button", ev.Kind).Stringer("change", ev.Change).Msg("event")
		default:
			p.dropped.Add(1)
			p.log.Warn().Stringer("button", ev.Kind).Msg("event queue full, button dropped")
		}
	}
}
