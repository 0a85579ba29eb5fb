package field

import "strings"

// ID identifies one required piece of information
type ID string

const (
	U1 ID = "u1"
	C1 ID = "c1"
	U2 ID = "u2"
	C2 ID = "c2"
)

// Kind describes the expected shape of a field value
type Kind string

const (
	KindInstitution Kind = "institution"
	KindCourse      Kind = "course"
)

// Field is one entry of the ordered schema
type Field struct {
	ID    ID
	Label string
	Kind  Kind
}

// Set is the ordered schema of required fields.
// Order defines both elicitation order and the next-missing rule.
type Set struct {
	fields []Field
}

// DefaultSet returns the two institution / two course schema
func DefaultSet() Set {
	return NewSet(
		Field{ID: U1, Label: "First University name", Kind: KindInstitution},
		Field{ID: C1, Label: "First University course", Kind: KindCourse},
		Field{ID: U2, Label: "Second University name", Kind: KindInstitution},
		Field{ID: C2, Label: "Second University course", Kind: KindCourse},
	)
}

// NewSet builds a schema from fields in declared order. Duplicate ids keep the first declaration.
func NewSet(fields ...Field) Set {
	seen := make(map[ID]bool, len(fields))
	ordered := make([]Field, 0, len(fields))
	for _, f := range fields {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		ordered = append(ordered, f)
	}
	return Set{fields: ordered}
}

// Fields returns a copy of the schema in declared order
func (s Set) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Total is the number of required fields
func (s Set) Total() int {
	return len(s.fields)
}

// Lookup returns the schema entry for id
func (s Set) Lookup(id ID) (Field, bool) {
	for _, f := range s.fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// NextMissing returns the earliest unset field in declared order
func (s Set) NextMissing(v Values) (Field, bool) {
	for _, f := range s.fields {
		if isBlank(v.Get(f.ID)) {
			return f, true
		}
	}
	return Field{}, false
}

// IsComplete reports whether every schema field has a non-empty value
func (s Set) IsComplete(v Values) bool {
	_, missing := s.NextMissing(v)
	return !missing
}

// CollectedCount counts schema fields with a non-empty value
func (s Set) CollectedCount(v Values) int {
	n := 0
	for _, f := range s.fields {
		if !isBlank(v.Get(f.ID)) {
			n++
		}
	}
	return n
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
