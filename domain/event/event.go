package event

import "chatline/domain/chat"

// MessageStored is emitted by a session after a message has been persisted
// and an id assigned. The broadcaster consumes these events in order, which
// preserves per-sender delivery order (persist happens before enqueue).
type MessageStored struct {
	Message chat.Message
}
