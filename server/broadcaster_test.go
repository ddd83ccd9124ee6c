package server

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chatline/domain/chat"
	"chatline/domain/event"
	"chatline/wire"
)

// drainingHandle returns a registered-side handle plus a channel yielding
// every frame the peer receives.
func drainingHandle(t *testing.T) (*Handle, <-chan wire.Envelope) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		_ = serverSide.Close()
		_ = clientSide.Close()
	})

	frames := make(chan wire.Envelope, 16)
	go func() {
		scanner := bufio.NewScanner(clientSide)
		for scanner.Scan() {
			var env wire.Envelope
			if err := wire.Decode(scanner.Bytes(), &env); err != nil {
				continue
			}
			frames <- env
		}
	}()
	return NewHandle(serverSide), frames
}

func waitFrame(t *testing.T, frames <-chan wire.Envelope) wire.Envelope {
	t.Helper()
	select {
	case env := <-frames:
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return wire.Envelope{}
	}
}

func TestBroadcaster_DeliversToEveryHandleIncludingSender(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := NewRegistry()

	aliceHandle, aliceFrames := drainingHandle(t)
	bobHandle, bobFrames := drainingHandle(t)
	aliceHandle.SetUsername("alice")
	bobHandle.SetUsername("bob")
	registry.Register("alice", aliceHandle)
	registry.Register("bob", bobHandle)

	b := NewBroadcaster(registry, make(chan event.MessageStored), log)
	b.fanout(chat.Message{ID: 1, Sender: "alice", Content: "hi", At: time.Now().UTC()})

	for _, frames := range []<-chan wire.Envelope{aliceFrames, bobFrames} {
		env := waitFrame(t, frames)
		req.Equal(wire.ResponseNewMessage, env.Response)
		req.Equal(int64(1), env.ID)
		req.Equal("alice", env.From)
		req.Equal("hi", env.Content)
	}
}

func TestBroadcaster_DeadHandleDoesNotAbortDelivery(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := NewRegistry()

	deadServer, deadClient := net.Pipe()
	deadHandle := NewHandle(deadServer)
	deadHandle.SetUsername("ghost")
	_ = deadClient.Close()
	_ = deadServer.Close()

	liveHandle, liveFrames := drainingHandle(t)
	liveHandle.SetUsername("bob")

	registry.Register("ghost", deadHandle)
	registry.Register("bob", liveHandle)

	b := NewBroadcaster(registry, make(chan event.MessageStored), log)
	b.fanout(chat.Message{ID: 7, Sender: "alice", Content: "still here?", At: time.Now().UTC()})

	// The live peer got the message despite the failed write.
	env := waitFrame(t, liveFrames)
	req.Equal(int64(7), env.ID)

	// The failed handle is absent from the next snapshot.
	for _, h := range registry.Snapshot() {
		req.NotSame(deadHandle, h)
	}
	_, ok := registry.Lookup("ghost")
	req.False(ok)
}

func TestBroadcaster_EvictsStaleEntryAfterRelogin(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := NewRegistry()

	// A session logs in as alice, then re-logs-in as bob on the same
	// connection: the alice entry keeps pointing at the handle while the
	// handle's own username moves on.
	serverSide, clientSide := net.Pipe()
	h := NewHandle(serverSide)
	h.SetUsername("alice")
	registry.Register("alice", h)
	h.SetUsername("bob")
	registry.Register("bob", h)

	// Disconnect: session teardown unregisters only the current name.
	registry.Unregister("bob", h)
	_ = clientSide.Close()
	_ = serverSide.Close()

	b := NewBroadcaster(registry, make(chan event.MessageStored), log)

	// The first fanout hits the dead handle under the stale alice entry and
	// must evict it by that snapshotted name, not by h.Username().
	b.fanout(chat.Message{ID: 1, Sender: "carol", Content: "anyone?", At: time.Now().UTC()})
	req.Empty(registry.Snapshot())

	// A later fanout sees a clean registry instead of the dead handle again.
	b.fanout(chat.Message{ID: 2, Sender: "carol", Content: "good", At: time.Now().UTC()})
	req.Empty(registry.Snapshot())
}

func TestBroadcaster_RunConsumesEventsInOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := NewRegistry()

	h, frames := drainingHandle(t)
	h.SetUsername("bob")
	registry.Register("bob", h)

	events := make(chan event.MessageStored, 4)
	b := NewBroadcaster(registry, events, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()

	for id := int64(1); id <= 3; id++ {
		events <- event.MessageStored{Message: chat.Message{ID: id, Sender: "alice", Content: "m", At: time.Now().UTC()}}
	}

	// Per-recipient delivery follows persistence order.
	for id := int64(1); id <= 3; id++ {
		req.Equal(id, waitFrame(t, frames).ID)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop on cancel")
	}
}
