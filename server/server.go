package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"chatline/domain/event"
	"chatline/moderation"
	"chatline/repositories"
	"chatline/services"
)

// Server accepts TCP connections and runs one session goroutine per client,
// capped by a semaphore so a connection flood degrades into queued accepts
// instead of unbounded goroutine growth.
type Server struct {
	registry    *Registry
	credentials services.ICredentialService
	messages    repositories.IMessageRepository
	moderator   *moderation.Moderator
	events      chan<- event.MessageStored
	log         *slog.Logger
	maxConns    int
}

func New(
	registry *Registry,
	credentials services.ICredentialService,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	events chan<- event.MessageStored,
	log *slog.Logger,
	maxConns int,
) *Server {
	return &Server{
		registry:    registry,
		credentials: credentials,
		messages:    messages,
		moderator:   moderator,
		events:      events,
		log:         log,
		maxConns:    maxConns,
	}
}

// Serve runs the accept loop on ln until ctx is canceled, then waits for
// in-flight sessions to wind down. A single session's failure never reaches
// the listener or the other sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	sem := make(chan struct{}, s.maxConns)
	var wg sync.WaitGroup

	s.log.Info("Chat server listening", "address", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			s.log.Error("Accept connection error", "error", err)
			continue
		}

		s.log.Debug("Accepted new connection", "remote", conn.RemoteAddr().String())

		sem <- struct{}{}
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer func() { <-sem }()

			session := NewSession(c, s.registry, s.credentials, s.messages, s.moderator, s.events, s.log)
			session.Run(ctx)
		}(conn)
	}
}
