package field

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when an update targets an id outside the enum
var ErrUnknownField = errors.New("unknown field")

// Values holds the collected value of every field. Empty string means unset.
type Values struct {
	U1 string `json:"u1"`
	C1 string `json:"c1"`
	U2 string `json:"u2"`
	C2 string `json:"c2"`
}

// Update is a tagged single-field update
type Update struct {
	Field ID
	Value string
}

// Get returns the value stored for id
func (v Values) Get(id ID) string {
	switch id {
	case U1:
		return v.U1
	case C1:
		return v.C1
	case U2:
		return v.U2
	case C2:
		return v.C2
	}
	return ""
}

// Apply returns a copy of v with u applied. The receiver is left untouched.
func (v Values) Apply(u Update) (Values, error) {
	value := strings.TrimSpace(u.Value)
	switch u.Field {
	case U1:
		v.U1 = value
	case C1:
		v.C1 = value
	case U2:
		v.U2 = value
	case C2:
		v.C2 = value
	default:
		return v, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
	}
	return v, nil
}

// Map returns the values keyed by field id, only for the given schema
func (v Values) Map(s Set) map[ID]string {
	out := make(map[ID]string, s.Total())
	for _, f := range s.fields {
		out[f.ID] = v.Get(f.ID)
	}
	return out
}
