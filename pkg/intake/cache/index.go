package cache

import (
	"context"
	"time"
)

// Exchange is one stored (user text, assistant reply) pair
type Exchange struct {
	ID            string
	SessionID     string
	UserText      string
	AssistantText string
	Cached        bool // reply was replayed from an earlier exchange
	Timestamp     time.Time
}

// Match is an exchange with its semantic distance to a query
type Match struct {
	Exchange Exchange
	Distance float64
}

// Index is the vector store behind the cache. Implementations must apply the
// session filter at query time; the cache re-checks it on every result.
type Index interface {
	Insert(ctx context.Context, ex Exchange) error
	Nearest(ctx context.Context, sessionID, text string, maxDistance float64, limit int) ([]Match, error)
	History(ctx context.Context, sessionID string, page Page) ([]Exchange, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
	ClearAll(ctx context.Context) error
}

// Page selects a window of a session history. A non-positive Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// Slice applies the window to items already in write order
func (p Page) Slice(items []Exchange) []Exchange {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return []Exchange{}
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
