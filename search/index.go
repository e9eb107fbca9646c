package search

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"
)

// Index is a Bluge full-text index over stored messages. Indexing is
// best-effort and decoupled from the history store's durability guarantee:
// a failed index write loses a search hit, never a message.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Hit is one search result.
type Hit struct {
	Room string
	Name string
	Text string
	Seq  int
}

func Open(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Add indexes one stored message. The doc id room:seq makes re-indexing
// after a replayed append idempotent.
func (i *Index) Add(msg domain.Message) error {
	doc := bluge.NewDocument(fmt.Sprintf("%s:%d", msg.Room, msg.Seq))
	doc.AddField(bluge.NewKeywordField("room", msg.Room).StoreValue())
	doc.AddField(bluge.NewKeywordField("name", msg.Name).StoreValue())
	doc.AddField(bluge.NewTextField("text", msg.Text).StoreValue())
	doc.AddField(bluge.NewKeywordField("seq", strconv.Itoa(msg.Seq)).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs q against the index and returns up to q.Limit hits.
func (i *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Terms == "" {
		return nil, nil
	}

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(q.Terms).SetField("text"))
	if q.Room != "" {
		query.AddMust(bluge.NewTermQuery(q.Room).SetField("room"))
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader", "error", err)
		}
	}()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var hits []Hit
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterating search results: %w", err)
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "room":
				hit.Room = string(value)
			case "name":
				hit.Name = string(value)
			case "text":
				hit.Text = string(value)
			case "seq":
				hit.Seq, _ = strconv.Atoi(string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
