package session

// Store holds the active sessions. It guards membership only, never a session body.
type Store interface {
	Get(id string) (*State, bool)
	Save(st *State)
	Delete(id string)
	All() []*State
}
