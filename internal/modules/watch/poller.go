// README: Outbox poller; surfaces writes made by other actors.
package watch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const pollBatch = 200

// Poller tails the order_events outbox and feeds the hub, so mutations
// from the admin dashboard or a delegate session on another node reach
// local subscribers. In-process writes already hit the hub directly;
// the resulting duplicate hints are coalesced by the dirty channels.
type Poller struct {
	store    Reader
	hub      *Service
	interval time.Duration
	log      *zap.Logger

	lastID int64
	primed bool
}

func NewPoller(store Reader, hub *Service, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{store: store, hub: hub, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. The first poll only advances the
// offset past historical events; replaying all of history on boot would
// be noise, since new subscriptions read a fresh initial snapshot anyway.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	for {
		events, err := p.store.EventsAfter(ctx, p.lastID, pollBatch)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("outbox poll failed", zap.Error(err))
			}
			return
		}
		for _, e := range events {
			p.lastID = e.ID
			if p.primed {
				p.hub.OrderChanged(e)
			}
		}
		if len(events) < pollBatch {
			p.primed = true
			return
		}
	}
}
