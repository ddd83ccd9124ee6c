// Command inspect dumps the contents of a chat database for debugging.
// It opens the store read-only, so it can run alongside a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

type storedMessage struct {
	ID      int64  `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	At      int64  `json:"at"`
}

type storedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db flag")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	switch *prefix {
	case "user:":
		table.SetHeader([]string{"Key", "ID", "Username", "Created At"})
		err = scan(db, *prefix, func(key string, val []byte) {
			var u storedUser
			if err := json.Unmarshal(val, &u); err != nil {
				fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
				return
			}
			table.Append([]string{key, u.ID, u.Username, u.CreatedAt.Format(time.RFC3339)})
		})
	default:
		table.SetHeader([]string{"Key", "ID", "Sender", "Timestamp", "Content"})
		err = scan(db, *prefix, func(key string, val []byte) {
			var m storedMessage
			if err := json.Unmarshal(val, &m); err != nil {
				fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
				return
			}
			table.Append([]string{
				key,
				strconv.FormatInt(m.ID, 10),
				m.Sender,
				time.Unix(0, m.At).UTC().Format(time.RFC3339),
				m.Content,
			})
		})
	}
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func scan(db *badger.DB, prefix string, row func(key string, val []byte)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				row(string(item.Key()), v)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows inspection while the server holds the lock.
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}
