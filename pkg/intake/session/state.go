package session

import (
	"sync"
	"time"

	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
	"ppm-intake-be/pkg/intake/transcript"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusComplete Status = "COMPLETE"
	StatusClosed   Status = "CLOSED"
)

// State is one conversation's progress. All access goes through mu.
type State struct {
	mu sync.Mutex

	id          string
	createdAt   time.Time
	completedAt time.Time
	values      field.Values
	transcript  *transcript.Ring

	saved  bool // completion record durably written
	closed bool
}

func newState(id string, createdAt time.Time, capacity int) *State {
	return &State{
		id:         id,
		createdAt:  createdAt,
		transcript: transcript.NewRing(capacity),
	}
}

// restoredState rebuilds a completed or partial session from its persisted record
func restoredState(rec record.Record, capacity int) *State {
	st := newState(rec.SessionID, rec.CreatedAt, capacity)
	st.values = rec.Fields
	st.completedAt = rec.CompletedAt
	st.saved = true
	return st
}

func (s *State) ID() string { return s.id }

func (s *State) status(schema field.Set) Status {
	switch {
	case s.closed:
		return StatusClosed
	case schema.IsComplete(s.values):
		return StatusComplete
	default:
		return StatusActive
	}
}

// apply commits an accepted update. It refuses anything but the next missing field.
func (s *State) apply(schema field.Set, u field.Update) error {
	next, missing := schema.NextMissing(s.values)
	if !missing {
		return invariant(ErrAlreadyComplete)
	}
	if next.ID != u.Field {
		return invariant(ErrOutOfOrderUpdate)
	}
	values, err := s.values.Apply(u)
	if err != nil {
		return invariant(err)
	}
	s.values = values
	return nil
}

func (s *State) record() record.Record {
	return record.Record{
		SessionID:   s.id,
		CreatedAt:   s.createdAt,
		CompletedAt: s.completedAt,
		Fields:      s.values,
	}
}
