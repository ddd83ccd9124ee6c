package chat

import "time"

// Message is a single chat message as persisted by the message store.
// The ID is assigned by the store at persist time, never by the network
// layer, and is strictly increasing across the whole log. A Message is
// immutable once created.
type Message struct {
	ID      int64
	Sender  string
	Content string
	At      time.Time
}
