package client

import (
	"context"
	"log/slog"

	"chatline/contract"
	"chatline/wire"
)

var _ contract.Worker = (*Receiver)(nil)

// Receiver is the only reader of incoming network data on the client. It
// merges the push path (new_message) and the pull path (poll) into one
// deduplicated, ordered stream of rendered messages, reconciled through the
// shared watermark.
type Receiver struct {
	reader    *wire.Reader
	watermark *Watermark
	renderer  Renderer
	username  string
	stop      context.CancelFunc
	log       *slog.Logger
}

// NewReceiver wires the receiver to the shared connection reader. stop is
// invoked when the server side goes away, so the poller and the input loop
// shut down with it instead of writing into a dead connection forever.
func NewReceiver(
	reader *wire.Reader,
	watermark *Watermark,
	renderer Renderer,
	username string,
	stop context.CancelFunc,
	log *slog.Logger,
) *Receiver {
	return &Receiver{
		reader:    reader,
		watermark: watermark,
		renderer:  renderer,
		username:  username,
		stop:      stop,
		log:       log,
	}
}

func (r *Receiver) Run(ctx context.Context) error {
	for {
		line, err := r.reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				// User-initiated shutdown closed the connection under us:
				// a read error here is a clean exit, not a failure.
				return nil
			}
			r.log.Warn("Server connection lost", "error", err)
			r.stop()
			return nil
		}

		var env wire.Envelope
		if err := wire.Decode(line, &env); err != nil {
			r.log.Debug("Dropping malformed frame", "error", err)
			continue
		}

		r.consume(env)
	}
}

func (r *Receiver) consume(env wire.Envelope) {
	switch env.Response {
	case wire.ResponseNewMessage:
		r.consumePush(env)
	case wire.ResponsePoll:
		r.consumePoll(env.Messages)
	case wire.ResponseError:
		r.log.Warn("Server error", "info", env.Info)
	default:
		// Login/register replies are consumed by the interactive flow
		// before the receiver starts; anything arriving here is stale.
		r.log.Debug("Ignoring frame", "response", env.Response)
	}
}

// consumePush advances the watermark for every first-time id, but renders
// only messages from other users: the sender's own pushes are suppressed
// (echo suppression), their content was already visible when typed.
func (r *Receiver) consumePush(env wire.Envelope) {
	if !r.watermark.Observe(env.ID) {
		// Already seen via an earlier push or a poll response.
		return
	}
	if env.From == r.username {
		return
	}
	r.renderer.Render(wire.Message{
		ID:        env.ID,
		Sender:    env.From,
		Content:   env.Content,
		Timestamp: env.Timestamp,
	})
}

// consumePoll renders every first-time message regardless of sender: poll
// is the recovery path and intentionally re-displays the client's own
// history, unlike the push path.
func (r *Receiver) consumePoll(messages []wire.Message) {
	for _, m := range messages {
		if r.watermark.Observe(m.ID) {
			r.renderer.Render(m)
		}
	}
}
