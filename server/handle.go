package server

import (
	"net"
	"sync"

	"github.com/google/uuid"

	"chatline/wire"
)

// Handle is the write side of one live client connection. It is what the
// registry stores and what the broadcaster writes to; the owning session
// keeps the read side to itself.
type Handle struct {
	conn   net.Conn
	writer *wire.Writer
	connID string

	mu       sync.Mutex
	username string
	closed   bool
}

func NewHandle(conn net.Conn) *Handle {
	return &Handle{
		conn:   conn,
		writer: wire.NewWriter(conn),
		connID: uuid.New().String(),
	}
}

func (h *Handle) ConnID() string {
	return h.connID
}

// SetUsername records the authenticated identity. Called by the session on
// a successful login, before the handle is registered; the broadcaster only
// reads it afterwards.
func (h *Handle) SetUsername(username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.username = username
}

func (h *Handle) Username() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.username
}

// WriteFrame sends one frame to the peer. Safe for concurrent use: the
// session replies and the broadcaster push through the same writer.
func (h *Handle) WriteFrame(v any) error {
	return h.writer.WriteFrame(v)
}

// Close releases the connection. Idempotent: both the session teardown and
// the broadcaster's eviction path may race to close a dead handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.conn.Close()
}
