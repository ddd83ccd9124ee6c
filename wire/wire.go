// Package wire defines the newline-delimited JSON protocol spoken between
// the chat server and its clients. Each logical frame is one JSON object
// terminated by a single '\n'; both directions of the stream are framed the
// same way and are independent of each other (full duplex).
package wire

import (
	"time"

	"chatline/domain/chat"
)

// Client -> server action names, carried in the "action" field.
const (
	ActionRegister = "register"
	ActionLogin    = "login"
	ActionSend     = "send_message"
	ActionPoll     = "poll"
)

// Server -> client response names, carried in the "response" field.
const (
	ResponseRegister   = "register"
	ResponseLogin      = "login"
	ResponseNewMessage = "new_message"
	ResponsePoll       = "poll"
	ResponseError      = "error"
)

// Request is the client->server frame. A single envelope covers every
// action; fields irrelevant to an action are omitted on the wire. A missing
// last_id is read as 0, which asks for the full history.
type Request struct {
	Action   string `json:"action"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Content  string `json:"content,omitempty"`
	LastID   int64  `json:"last_id,omitempty"`
}

// Message is the wire form of a chat message, used both inside poll
// responses and (with the "from" alias) in new_message pushes.
type Message struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type RegisterResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
	Info     string `json:"info"`
}

type LoginResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

type NewMessage struct {
	Response  string `json:"response"`
	ID        int64  `json:"id"`
	From      string `json:"from"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// PollResponse always carries a messages array, even when empty: an empty
// result set is a valid, terminating answer, not an error.
type PollResponse struct {
	Response string    `json:"response"`
	Messages []Message `json:"messages"`
}

type ErrorResponse struct {
	Response string `json:"response"`
	Info     string `json:"info"`
}

// Envelope is the union of every server->client frame, used on the read
// side where the frame type is only known after parsing "response".
type Envelope struct {
	Response  string    `json:"response"`
	Success   bool      `json:"success"`
	Info      string    `json:"info"`
	ID        int64     `json:"id"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// FromChat converts a stored message to its wire form. Timestamps travel as
// RFC3339 in UTC.
func FromChat(m chat.Message) Message {
	return Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.At.UTC().Format(time.RFC3339),
	}
}

func NewMessageFrom(m chat.Message) NewMessage {
	return NewMessage{
		Response:  ResponseNewMessage,
		ID:        m.ID,
		From:      m.Sender,
		Content:   m.Content,
		Timestamp: m.At.UTC().Format(time.RFC3339),
	}
}
