package test

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chatline/client"
	"chatline/domain/event"
	"chatline/moderation"
	"chatline/repositories"
	"chatline/runtime/workers"
	"chatline/server"
	"chatline/services"
	"chatline/wire"
)

// chatClient is a wire-level client used to drive the server over real TCP.
type chatClient struct {
	t      *testing.T
	conn   net.Conn
	writer *wire.Writer
	frames chan wire.Envelope
}

func dialClient(t *testing.T, addr string) *chatClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &chatClient{
		t:      t,
		conn:   conn,
		writer: wire.NewWriter(conn),
		frames: make(chan wire.Envelope, 64),
	}
	reader := wire.NewReader(conn)
	go func() {
		defer close(c.frames)
		for {
			line, err := reader.Next()
			if err != nil {
				return
			}
			var env wire.Envelope
			if err := wire.Decode(line, &env); err != nil {
				continue
			}
			c.frames <- env
		}
	}()
	return c
}

func (c *chatClient) send(req wire.Request) {
	c.t.Helper()
	require.NoError(c.t, c.writer.WriteFrame(req))
}

func (c *chatClient) recv() wire.Envelope {
	c.t.Helper()
	select {
	case env, ok := <-c.frames:
		require.True(c.t, ok, "connection closed while waiting for a frame")
		return env
	case <-time.After(2 * time.Second):
		c.t.Fatal("timed out waiting for a frame")
		return wire.Envelope{}
	}
}

func (c *chatClient) expectNoFrame() {
	c.t.Helper()
	select {
	case env := <-c.frames:
		c.t.Fatalf("unexpected frame: %+v", env)
	case <-time.After(200 * time.Millisecond):
	}
}

func (c *chatClient) signUpAndLogin(username, password string) {
	c.t.Helper()
	req := require.New(c.t)

	c.send(wire.Request{Action: wire.ActionRegister, Username: username, Password: password})
	reply := c.recv()
	req.Equal(wire.ResponseRegister, reply.Response)
	req.True(reply.Success)

	c.send(wire.Request{Action: wire.ActionLogin, Username: username, Password: password})
	reply = c.recv()
	req.Equal(wire.ResponseLogin, reply.Response)
	req.True(reply.Success)
}

// startServer boots the full stack (badger, broadcaster, accept loop) on an
// ephemeral port and returns its address.
func startServer(t *testing.T, censoredWords []string) string {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelError)
	moderator, err := moderation.NewModerator(censoredWords, '*')
	req.NoError(err)

	registry := server.NewRegistry()
	events := make(chan event.MessageStored, 64)
	sup := workers.NewSupervisor(log, 100*time.Millisecond)
	sup.Add(server.NewBroadcaster(registry, events, log))

	ctx, cancel := context.WithCancel(context.Background())

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	srv := server.New(
		registry,
		services.NewCredentialService(repositories.NewUserRepository(db), log),
		repositories.NewMessageRepository(db, log),
		moderator,
		events, log, 16,
	)
	srvDone := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(srvDone)
	}()

	t.Cleanup(func() {
		cancel()
		<-srvDone
		<-supDone
	})
	return ln.Addr().String()
}

func TestChat_TwoUsersExchangeMessages(t *testing.T) {
	req := require.New(t)
	addr := startServer(t, []string{"badger"})

	alice := dialClient(t, addr)
	bob := dialClient(t, addr)
	alice.signUpAndLogin("alice", "password123")
	bob.signUpAndLogin("bob", "hunter2hunter2")

	// Alice speaks; both connected clients get exactly one push, with the
	// moderated content.
	alice.send(wire.Request{Action: wire.ActionSend, Content: "the badger bites"})

	for _, c := range []*chatClient{alice, bob} {
		push := c.recv()
		req.Equal(wire.ResponseNewMessage, push.Response)
		req.Equal("alice", push.From)
		req.Equal("the ****** bites", push.Content)
		req.Equal(int64(1), push.ID)
	}
	alice.expectNoFrame()
	bob.expectNoFrame()

	// Bob answers; ids keep increasing across senders.
	bob.send(wire.Request{Action: wire.ActionSend, Content: "ouch"})
	req.Equal(int64(2), alice.recv().ID)
	req.Equal(int64(2), bob.recv().ID)
}

func TestChat_PollRecoversHistoryForLateJoiner(t *testing.T) {
	req := require.New(t)
	addr := startServer(t, nil)

	alice := dialClient(t, addr)
	alice.signUpAndLogin("alice", "password123")
	alice.send(wire.Request{Action: wire.ActionSend, Content: "first"})
	alice.send(wire.Request{Action: wire.ActionSend, Content: "second"})
	req.Equal(int64(1), alice.recv().ID)
	req.Equal(int64(2), alice.recv().ID)

	// Bob joins after the fact; his first poll replays the full history.
	bob := dialClient(t, addr)
	bob.signUpAndLogin("bob", "hunter2hunter2")
	bob.send(wire.Request{Action: wire.ActionPoll, LastID: 0})

	poll := bob.recv()
	req.Equal(wire.ResponsePoll, poll.Response)
	req.Len(poll.Messages, 2)
	req.Equal("first", poll.Messages[0].Content)
	req.Equal("second", poll.Messages[1].Content)

	// A caught-up poll returns an empty, well-formed array.
	bob.send(wire.Request{Action: wire.ActionPoll, LastID: 2})
	poll = bob.recv()
	req.Equal(wire.ResponsePoll, poll.Response)
	req.Empty(poll.Messages)
	req.NotNil(poll.Messages)
}

func TestChat_WatermarkDeduplicatesPushAndPoll(t *testing.T) {
	req := require.New(t)
	addr := startServer(t, nil)

	alice := dialClient(t, addr)
	bob := dialClient(t, addr)
	alice.signUpAndLogin("alice", "password123")
	bob.signUpAndLogin("bob", "hunter2hunter2")

	alice.send(wire.Request{Action: wire.ActionSend, Content: "hello"})

	// Bob observes the push, then polls from zero: the poll repeats id 1,
	// and the watermark makes that duplicate invisible.
	watermark := client.NewWatermark()
	firstTime := 0

	push := bob.recv()
	req.Equal(wire.ResponseNewMessage, push.Response)
	if watermark.Observe(push.ID) {
		firstTime++
	}

	bob.send(wire.Request{Action: wire.ActionPoll, LastID: 0})
	poll := bob.recv()
	req.Equal(wire.ResponsePoll, poll.Response)
	req.Len(poll.Messages, 1)
	for _, m := range poll.Messages {
		if watermark.Observe(m.ID) {
			firstTime++
		}
	}

	req.Equal(1, firstTime)
}

func TestChat_SecondLoginWinsTheConnection(t *testing.T) {
	req := require.New(t)
	addr := startServer(t, nil)

	first := dialClient(t, addr)
	first.signUpAndLogin("alice", "password123")

	// Same account logs in from a second connection; pushes now go there.
	second := dialClient(t, addr)
	second.send(wire.Request{Action: wire.ActionLogin, Username: "alice", Password: "password123"})
	req.True(second.recv().Success)

	speaker := dialClient(t, addr)
	speaker.signUpAndLogin("bob", "hunter2hunter2")
	speaker.send(wire.Request{Action: wire.ActionSend, Content: "who hears this?"})

	push := second.recv()
	req.Equal(wire.ResponseNewMessage, push.Response)
	req.Equal("who hears this?", push.Content)
	first.expectNoFrame()
}

func TestChat_UnauthenticatedSendIsRejected(t *testing.T) {
	req := require.New(t)
	addr := startServer(t, nil)

	stranger := dialClient(t, addr)
	stranger.send(wire.Request{Action: wire.ActionSend, Content: "let me in"})

	reply := stranger.recv()
	req.Equal(wire.ResponseError, reply.Response)
	req.NotEmpty(reply.Info)
}
