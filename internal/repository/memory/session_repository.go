package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ppm-intake-be/pkg/intake/session"
)

type SessionRepository struct {
	cache *cache.Cache
}

var _ session.Store = (*SessionRepository)(nil)

// NewSessionRepository keeps sessions until they have been idle for idleTTL.
// A non-positive idleTTL keeps them until deleted.
func NewSessionRepository(idleTTL time.Duration) *SessionRepository {
	ttl := cache.NoExpiration
	cleanup := time.Duration(0)
	if idleTTL > 0 {
		ttl = idleTTL
		cleanup = idleTTL / 6
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanup),
	}
}

func (r *SessionRepository) Save(st *session.State) {
	r.cache.Set(st.ID(), st, cache.DefaultExpiration)
}

// Get refreshes the idle deadline of the session it returns
func (r *SessionRepository) Get(sessionID string) (*session.State, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	st := x.(*session.State)
	r.cache.Set(sessionID, st, cache.DefaultExpiration)
	return st, true
}

// OnEvicted registers fn for sessions leaving the store, by Delete or idle expiry
func (r *SessionRepository) OnEvicted(fn func(sessionID string)) {
	r.cache.OnEvicted(func(key string, _ interface{}) {
		fn(key)
	})
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) All() []*session.State {
	items := r.cache.Items()
	out := make([]*session.State, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*session.State))
	}
	return out
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
