// Command viewer dumps persisted room histories as a table. It opens the
// store read-only, so it can run next to a live server.
package main

import (
	"chat-relay/domain"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

const historyPrefix = "history:"

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

func main() {
	room := flag.String("room", "", "Only show this room (default: all rooms)")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "ID", "Timestamp", "Name", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(historyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			roomID := strings.TrimPrefix(string(item.Key()), historyPrefix)
			if *room != "" && roomID != *room {
				continue
			}

			err := item.Value(func(v []byte) error {
				var messages []domain.Message
				if err := json.Unmarshal(v, &messages); err != nil {
					// Log and keep going instead of aborting the dump.
					fmt.Printf("Error decoding room %s: %v\n", roomID, err)
					return nil
				}
				for _, m := range messages {
					table.Append([]string{
						roomID,
						strconv.Itoa(m.Seq),
						m.Timestamp,
						m.Name,
						m.Text,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}
