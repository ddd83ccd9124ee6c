package server

import (
	"github.com/samber/lo"

	"chatline/domain/chat"
	"chatline/repositories"
	"chatline/wire"
)

// respondToPoll answers "give me everything after lastID" from the message
// store, ascending by id. The messages array is always present: an empty
// result set is a valid, terminating response, not an error.
func respondToPoll(h *Handle, store repositories.IMessageRepository, lastID int64) error {
	messages, err := store.MessagesAfter(lastID)
	if err != nil {
		return err
	}

	return h.WriteFrame(wire.PollResponse{
		Response: wire.ResponsePoll,
		Messages: lo.Map(messages, func(m chat.Message, _ int) wire.Message {
			return wire.FromChat(m)
		}),
	})
}
