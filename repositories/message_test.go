package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"chatline/domain/chat"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessageRepository_AppendAssignsIncreasingIDs(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := NewMessageRepository(openTestDB(t), log)

	var ids []int64
	for i := 0; i < 5; i++ {
		msg, err := repo.Append("alice", fmt.Sprintf("message %d", i))
		req.NoError(err)
		req.Equal("alice", msg.Sender)
		req.False(msg.At.IsZero())
		req.Equal("UTC", msg.At.Location().String())
		ids = append(ids, msg.ID)
	}

	// Strictly increasing, gap-free, starting at 1.
	req.Equal([]int64{1, 2, 3, 4, 5}, ids)
}

func TestMessageRepository_ConcurrentAppendsNeverCollide(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := NewMessageRepository(openTestDB(t), log)

	const senders = 8
	const perSender = 25

	var wg sync.WaitGroup
	idsCh := make(chan int64, senders*perSender)

	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				msg, err := repo.Append(fmt.Sprintf("user-%d", s), "hello")
				require.NoError(t, err)
				idsCh <- msg.ID
			}
		}(s)
	}
	wg.Wait()
	close(idsCh)

	seen := make(map[int64]struct{})
	for id := range idsCh {
		_, dup := seen[id]
		req.False(dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}

	// No gaps either: with N appends the ids are exactly 1..N.
	req.Len(seen, senders*perSender)
	for id := int64(1); id <= senders*perSender; id++ {
		req.Contains(seen, id)
	}
}

func TestMessageRepository_MessagesAfter(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repo := NewMessageRepository(openTestDB(t), log)

	for i := 0; i < 3; i++ {
		_, err := repo.Append("bob", fmt.Sprintf("m%d", i+1))
		req.NoError(err)
	}

	all, err := repo.MessagesAfter(0)
	req.NoError(err)
	req.Equal([]int64{1, 2, 3}, lo.Map(all, func(m chat.Message, _ int) int64 { return m.ID }))
	req.Equal([]string{"m1", "m2", "m3"}, lo.Map(all, func(m chat.Message, _ int) string { return m.Content }))

	tail, err := repo.MessagesAfter(2)
	req.NoError(err)
	req.Len(tail, 1)
	req.Equal(int64(3), tail[0].ID)

	empty, err := repo.MessagesAfter(3)
	req.NoError(err)
	req.Empty(empty)
}
