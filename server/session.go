package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"chatline/domain/event"
	"chatline/moderation"
	"chatline/repositories"
	"chatline/services"
	"chatline/wire"
)

// Session drives the per-connection state machine:
// UNAUTHENTICATED -> AUTHENTICATED -> CLOSED. One instance per accepted
// connection, owned exclusively by its goroutine.
type Session struct {
	handle      *Handle
	reader      *wire.Reader
	registry    *Registry
	credentials services.ICredentialService
	messages    repositories.IMessageRepository
	moderator   *moderation.Moderator
	events      chan<- event.MessageStored
	log         *slog.Logger

	// Authenticated identity; empty until a login succeeds.
	username string
}

func NewSession(
	conn net.Conn,
	registry *Registry,
	credentials services.ICredentialService,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	events chan<- event.MessageStored,
	log *slog.Logger,
) *Session {
	handle := NewHandle(conn)
	return &Session{
		handle:      handle,
		reader:      wire.NewReader(conn),
		registry:    registry,
		credentials: credentials,
		messages:    messages,
		moderator:   moderator,
		events:      events,
		log:         log.With("conn", handle.ConnID()),
	}
}

// Run reads frames until the peer goes away, then cleans up. A malformed
// line is dropped and the session keeps reading; only I/O failure or EOF
// moves the session to CLOSED. Server shutdown closes the connection out
// from under the blocking read, so an idle peer cannot hold the session
// (and the accept loop's WaitGroup) open past cancellation.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	unblock := context.AfterFunc(ctx, func() { _ = s.handle.Close() })
	defer unblock()

	for {
		line, err := s.reader.Next()
		if err != nil {
			s.logReadError(err)
			return
		}

		var req wire.Request
		if err := wire.Decode(line, &req); err != nil {
			s.log.Debug("Dropping malformed frame", "error", err)
			continue
		}

		s.dispatch(ctx, req)
	}
}

func (s *Session) dispatch(ctx context.Context, req wire.Request) {
	switch req.Action {
	case wire.ActionRegister:
		s.handleRegister(req)
	case wire.ActionLogin:
		s.handleLogin(req)
	case wire.ActionSend:
		if !s.authenticated() {
			s.reject("must authenticate first")
			return
		}
		s.handleSend(ctx, req)
	case wire.ActionPoll:
		if !s.authenticated() {
			s.reject("must authenticate first")
			return
		}
		s.handlePoll(req)
	default:
		s.reject("unsupported action")
	}
}

func (s *Session) authenticated() bool {
	return s.username != ""
}

// handleRegister is accepted in any state; it never changes the session
// state, the client still has to log in afterwards.
func (s *Session) handleRegister(req wire.Request) {
	ok, info := s.credentials.Create(req.Username, req.Password)
	s.reply(wire.RegisterResponse{Response: wire.ResponseRegister, Success: ok, Info: info})
}

// handleLogin authenticates and registers the username for push delivery.
// A repeat login while already authenticated is accepted; its only routing
// effect is the registry's last-login-wins replacement.
func (s *Session) handleLogin(req wire.Request) {
	if !s.credentials.Verify(req.Username, req.Password) {
		s.reply(wire.LoginResponse{Response: wire.ResponseLogin, Success: false})
		return
	}

	s.username = req.Username
	s.handle.SetUsername(req.Username)
	s.registry.Register(req.Username, s.handle)
	s.log.Info("User logged in", "username", req.Username)

	s.reply(wire.LoginResponse{Response: wire.ResponseLogin, Success: true})
}

// handleSend moderates, persists, then enqueues for broadcast, in that
// order. Persisting first is what gives every recipient per-sender
// delivery in id order.
func (s *Session) handleSend(ctx context.Context, req wire.Request) {
	review := s.moderator.Review(req.Content)
	if len(review.CensoredWords) > 0 {
		s.log.Warn("Message censored",
			"username", s.username,
			"words", len(review.CensoredWords),
			"lang", review.Lang)
	}

	msg, err := s.messages.Append(s.username, review.Sanitized)
	if err != nil {
		s.log.Error("Message persistence failed", "username", s.username, "error", err)
		s.reject("failed to store message")
		return
	}

	select {
	case s.events <- event.MessageStored{Message: msg}:
	case <-ctx.Done():
	}
}

func (s *Session) handlePoll(req wire.Request) {
	if err := respondToPoll(s.handle, s.messages, req.LastID); err != nil {
		s.log.Debug("Poll response failed", "error", err)
	}
}

func (s *Session) reject(info string) {
	s.reply(wire.ErrorResponse{Response: wire.ResponseError, Info: info})
}

// reply writes one frame back to the peer. A write failure here is not
// fatal: the read loop will observe the dead connection on its next read.
func (s *Session) reply(frame any) {
	if err := s.handle.WriteFrame(frame); err != nil {
		s.log.Debug("Reply failed", "error", err)
	}
}

// close moves the session to CLOSED: drop the registry entry if this handle
// is still the current one for the username, then release the connection.
func (s *Session) close() {
	if s.username != "" {
		s.registry.Unregister(s.username, s.handle)
	}
	if err := s.handle.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Warn("Connection close failed", "error", err)
	}
	s.log.Info("Session closed", "username", s.username)
}

func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.log.Info("Client closed connection")
	case errors.Is(err, net.ErrClosed):
		s.log.Debug("Connection already closed")
	case os.IsTimeout(err):
		s.log.Warn("Reading timeout")
	default:
		s.log.Warn(fmt.Sprintf("Error occurred while reading frame, details: %v", err))
	}
}
