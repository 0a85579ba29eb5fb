package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ppm-intake-be/internal/pkg/logger"
)

const (
	DefaultMaxDistance = 0.5
	DefaultTimeout     = 5 * time.Second
	DefaultSearchLimit = 1
	lookupCandidates   = 3
)

type Config struct {
	MaxDistance float64
	Timeout     time.Duration
}

// Stats counts lookups of one session
type Stats struct {
	Hits   int
	Misses int
}

// SemanticCache replays replies for near-duplicate messages within one session.
// Lookup and write failures degrade to a miss or a skipped write.
type SemanticCache struct {
	index  Index
	cfg    Config
	logger logger.ILogger

	mu    sync.Mutex
	stats map[string]*Stats
}

func NewSemanticCache(index Index, cfg Config, log logger.ILogger) *SemanticCache {
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultMaxDistance
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SemanticCache{
		index:  index,
		cfg:    cfg,
		logger: log,
		stats:  make(map[string]*Stats),
	}
}

// Lookup returns the closest earlier exchange of the same session strictly within MaxDistance
func (c *SemanticCache) Lookup(ctx context.Context, sessionID, text string) (Exchange, bool) {
	if strings.TrimSpace(text) == "" {
		c.count(sessionID, false)
		return Exchange{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	matches, err := c.index.Nearest(callCtx, sessionID, text, c.cfg.MaxDistance, lookupCandidates)
	if err != nil {
		c.logger.Warn("SemanticCache", "lookup failed, treating as miss", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		c.count(sessionID, false)
		return Exchange{}, false
	}

	best, ok := c.best(sessionID, matches)
	c.count(sessionID, ok)
	if !ok {
		return Exchange{}, false
	}

	c.logger.Debug("SemanticCache", "cache hit", map[string]interface{}{
		"session_id":  sessionID,
		"exchange_id": best.Exchange.ID,
		"distance":    best.Distance,
	})
	return best.Exchange, true
}

// Record indexes an exchange. Returns false when the write did not happen.
func (c *SemanticCache) Record(ctx context.Context, ex Exchange) bool {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.index.Insert(callCtx, ex); err != nil {
		c.logger.Warn("SemanticCache", "exchange not indexed", map[string]interface{}{
			"session_id": ex.SessionID,
			"error":      err.Error(),
		})
		return false
	}
	return true
}

// Search returns up to limit exchanges of the session closer than MaxDistance, nearest first
func (c *SemanticCache) Search(ctx context.Context, sessionID, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	matches, err := c.index.Nearest(callCtx, sessionID, query, c.cfg.MaxDistance, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar exchanges: %w", err)
	}

	out := c.eligible(sessionID, matches)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// History returns one page of the stored exchanges of the session in write order
func (c *SemanticCache) History(ctx context.Context, sessionID string, page Page) ([]Exchange, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	items, err := c.index.History(callCtx, sessionID, page)
	if err != nil {
		return nil, fmt.Errorf("load exchange history: %w", err)
	}

	out := make([]Exchange, 0, len(items))
	for _, ex := range items {
		if ex.SessionID == sessionID {
			out = append(out, ex)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Count returns the number of stored exchanges of the session
func (c *SemanticCache) Count(ctx context.Context, sessionID string) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	n, err := c.index.Count(callCtx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("count exchanges of %s: %w", sessionID, err)
	}
	return n, nil
}

func (c *SemanticCache) Clear(ctx context.Context, sessionID string) error {
	if err := c.index.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear exchanges of %s: %w", sessionID, err)
	}
	return nil
}

func (c *SemanticCache) ClearAll(ctx context.Context) error {
	if err := c.index.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear all exchanges: %w", err)
	}
	return nil
}

func (c *SemanticCache) Stats(sessionID string) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stats[sessionID]; ok {
		return *s
	}
	return Stats{}
}

// Forget drops the per-session counters
func (c *SemanticCache) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.stats, sessionID)
	c.mu.Unlock()
}

func (c *SemanticCache) best(sessionID string, matches []Match) (Match, bool) {
	eligible := c.eligible(sessionID, matches)
	if len(eligible) == 0 {
		return Match{}, false
	}
	return eligible[0], true
}

// eligible keeps same-session matches under the threshold, nearest first
func (c *SemanticCache) eligible(sessionID string, matches []Match) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Exchange.SessionID != sessionID {
			continue
		}
		if m.Distance >= c.cfg.MaxDistance {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

func (c *SemanticCache) count(sessionID string, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[sessionID]
	if !ok {
		s = &Stats{}
		c.stats[sessionID] = s
	}
	if hit {
		s.Hits++
	} else {
		s.Misses++
	}
}
