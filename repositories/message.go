//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chatline/domain/chat"
)

type IMessageRepository interface {
	Append(sender, content string) (chat.Message, error)
	MessagesAfter(lastID int64) ([]chat.Message, error)
}

// MessageRepository is the durable append-only message log, backed by
// BadgerDB. It is the single authority for message ids: ids are assigned
// inside Append, strictly increasing and gap-free, in the order Append is
// called.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	// Serializes id assignment. Badger transactions alone would allow two
	// concurrent Appends to read the same sequence value and conflict;
	// taking the lock keeps assignment order equal to call order.
	mu sync.Mutex
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

const (
	msgPrefix  = "msg:"
	msgSeqKey  = "msg-seq"
	msgPadding = "%019d"
)

// diskMessage is the stored form of a message. Values are JSON, the same
// shapes that travel on the wire, so there is a single schema end to end.
type diskMessage struct {
	ID      int64  `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	At      int64  `json:"at"` // UnixNano, UTC
}

// msgKey formats a message key as "msg:{id_padded}". The 19-digit zero
// padding makes lexicographical key order equal numeric id order, so a
// prefix scan yields messages ascending by id with no sort step.
func msgKey(id int64) []byte {
	return []byte(msgPrefix + fmt.Sprintf(msgPadding, id))
}

// Append persists a message and assigns it the next id. The id read,
// increment and message write happen in one transaction under the
// repository lock, so observers never see a gap or a duplicate.
func (m *MessageRepository) Append(sender, content string) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := chat.Message{Sender: sender, Content: content, At: time.Now().UTC()}

	err := m.db.Update(func(txn *badger.Txn) error {
		next, err := nextID(txn)
		if err != nil {
			return err
		}
		msg.ID = next

		data, err := json.Marshal(diskMessage{
			ID:      msg.ID,
			Sender:  msg.Sender,
			Content: msg.Content,
			At:      msg.At.UnixNano(),
		})
		if err != nil {
			return err
		}

		if err := txn.Set([]byte(msgSeqKey), []byte(strconv.FormatInt(next, 10))); err != nil {
			return err
		}
		return txn.Set(msgKey(msg.ID), data)
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("append message: %w", err)
	}

	m.log.Debug("Message appended", "id", msg.ID, "sender", msg.Sender)
	return msg, nil
}

func nextID(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(msgSeqKey))
	switch {
	case err == badger.ErrKeyNotFound:
		return 1, nil
	case err != nil:
		return 0, err
	}

	var last int64
	err = item.Value(func(val []byte) error {
		parsed, parseErr := strconv.ParseInt(string(val), 10, 64)
		last = parsed
		return parseErr
	})
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// MessagesAfter returns every message with id strictly greater than lastID,
// ascending by id. Ids are the authoritative order; timestamps may collide
// or skew and are never used for ordering. An empty result is a normal
// answer, not an error.
func (m *MessageRepository) MessagesAfter(lastID int64) ([]chat.Message, error) {
	messages := make([]chat.Message, 0)

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(msgKey(lastID + 1)); it.ValidForPrefix(prefix); it.Next() {
			var disk diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			messages = append(messages, chat.Message{
				ID:      disk.ID,
				Sender:  disk.Sender,
				Content: disk.Content,
				At:      time.Unix(0, disk.At).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("messages after %d: %w", lastID, err)
	}
	return messages, nil
}
