// Package comments loads the comment discussion of a content item as a
// chronological forest.
package comments

import (
	"context"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/tree"
)

// Thread is a comment with its replies, oldest first.
type Thread struct {
	Comment content.Comment
	Replies []Thread
}

// Threads reads comment threads.
type Threads struct {
	reader store.Reader
}

// NewThreads builds a loader over reader.
func NewThreads(reader store.Reader) *Threads {
	return &Threads{reader: reader}
}

// Query selects the comments of an item.
func Query(itemID string) store.Query {
	return store.Collection(content.CollectionComments).Eq("itemId", itemID)
}

// Load returns the threads of itemID. Replies to missing comments become
// top level threads.
func (t *Threads) Load(ctx context.Context, itemID string) ([]Thread, error) {
	docs, err := t.reader.Get(ctx, Query(itemID))
	if err != nil {
		return nil, err
	}
	list, err := store.DecodeAll[content.Comment](docs)
	if err != nil {
		return nil, err
	}
	return Build(list), nil
}

// Build arranges comments into threads sorted by creation time. Comments
// without a timestamp follow their dated siblings in input order.
func Build(list []content.Comment) []Thread {
	roots := tree.Build(list, tree.Options[string, content.Comment, int64]{
		ID: func(c content.Comment) string { return c.ID },
		Parent: func(c content.Comment) (string, bool) {
			return c.ParentID, c.ParentID != ""
		},
		SortKey: func(c content.Comment) (int64, bool) {
			if c.CreatedAt.IsZero() {
				return 0, false
			}
			return c.CreatedAt.UnixNano(), true
		},
		SameScope: func(child, parent content.Comment) bool { return child.ItemID == parent.ItemID },
	})
	return threads(roots)
}

func threads(nodes []*tree.Node[string, content.Comment]) []Thread {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Thread, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, Thread{Comment: node.Item, Replies: threads(node.Children)})
	}
	return out
}

// Count returns the number of comments in threads.
func Count(threads []Thread) int {
	n := 0
	for _, t := range threads {
		n += 1 + Count(t.Replies)
	}
	return n
}
