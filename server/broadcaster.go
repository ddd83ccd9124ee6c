package server

import (
	"context"
	"log/slog"

	"chatline/contract"
	"chatline/domain/chat"
	"chatline/domain/event"
	"chatline/wire"
)

// Ensure *Broadcaster implements the contract.Worker interface at compile
// time, so a signature drift surfaces here instead of in the supervisor
// wiring.
var _ contract.Worker = (*Broadcaster)(nil)

// Broadcaster delivers stored messages to every registered connection.
// Sessions persist first and enqueue second on a single channel, so each
// recipient observes one sender's messages in persistence order.
type Broadcaster struct {
	registry *Registry
	events   <-chan event.MessageStored
	log      *slog.Logger
}

func NewBroadcaster(registry *Registry, events <-chan event.MessageStored, log *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, events: events, log: log}
}

func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.log.Debug("Context done, stopping broadcast")
			return nil
		case evt, ok := <-b.events:
			if !ok {
				b.log.Debug("Event channel closed")
				return nil
			}
			b.fanout(evt.Message)
		}
	}
}

// fanout writes one new_message frame to every handle in the current
// snapshot, the sender's own included: filtering its own echo is the
// sender's client's job. A failed write never aborts delivery to the
// others; the dead handle is evicted and closed opportunistically.
// Eviction keys on the snapshotted username, never h.Username(): the handle
// may have re-logged-in under a new name since the stale entry was made.
func (b *Broadcaster) fanout(msg chat.Message) {
	frame := wire.NewMessageFrom(msg)

	for username, h := range b.registry.Snapshot() {
		if err := h.WriteFrame(frame); err != nil {
			b.log.Warn("Evicting unreachable connection",
				"username", username,
				"conn", h.ConnID(),
				"error", err)
			b.registry.Unregister(username, h)
			_ = h.Close()
		}
	}
}
