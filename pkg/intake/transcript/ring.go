package transcript

// DefaultCapacity is the number of turns kept for model context
const DefaultCapacity = 20

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged line of the conversation
type Turn struct {
	Role string
	Text string
}

// Ring is a fixed-capacity sliding window of turns. Oldest turns are overwritten on overflow.
// Not safe for concurrent use; the owning session serializes access.
type Ring struct {
	buf   []Turn
	start int
	size  int
}

// NewRing creates a ring holding at most capacity turns
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]Turn, capacity)}
}

// Push appends a turn, evicting the oldest when full
func (r *Ring) Push(t Turn) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = t
		r.size++
		return
	}
	r.buf[r.start] = t
	r.start = (r.start + 1) % len(r.buf)
}

// Len is the number of turns held
func (r *Ring) Len() int {
	return r.size
}

// Cap is the fixed capacity
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Recent returns up to n most recent turns, oldest first.
// n <= 0 returns every held turn.
func (r *Ring) Recent(n int) []Turn {
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]Turn, n)
	offset := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+offset+i)%len(r.buf)]
	}
	return out
}
