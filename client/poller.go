package client

import (
	"context"
	"log/slog"
	"time"

	"chatline/contract"
	"chatline/wire"
)

var _ contract.Worker = (*Poller)(nil)

// Poller periodically asks the server for everything above the current
// watermark. It never reads responses; those are consumed by the receiver.
// The request's last_id may be stale by the time the response returns; the
// watermark's idempotent Observe makes that race safe by construction, not
// by locking.
type Poller struct {
	writer    *wire.Writer
	watermark *Watermark
	interval  time.Duration
	stop      context.CancelFunc
	log       *slog.Logger
}

func NewPoller(
	writer *wire.Writer,
	watermark *Watermark,
	interval time.Duration,
	stop context.CancelFunc,
	log *slog.Logger,
) *Poller {
	return &Poller{
		writer:    writer,
		watermark: watermark,
		interval:  interval,
		stop:      stop,
		log:       log,
	}
}

// Run polls immediately on start (that first request is what recovers
// history missed while disconnected), then on every tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		err := p.writer.WriteFrame(wire.Request{
			Action: wire.ActionPoll,
			LastID: p.watermark.Last(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("Poll request failed", "error", err)
			p.stop()
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
