package extract

import (
	"context"
	"strings"

	"ppm-intake-be/pkg/intake/field"
)

// ConfidenceThreshold is the exclusive lower bound for applying an extraction
const ConfidenceThreshold = 0.5

// InvalidInputMarker replaces the user message for reply generation when nothing usable was extracted
const InvalidInputMarker = "Invalid input by the user, ask for the next piece of information needed."

// Request carries everything an extractor may look at
type Request struct {
	Message string
	Values  field.Values
	Target  field.Field
	Schema  field.Set
}

// Result is the untrusted candidate proposed by an extractor
type Result struct {
	Field       field.ID
	Institution string
	Course      string
	Confidence  float64
}

// Extractor proposes a field update from free text
type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}

// Decision is the outcome of running the acceptance rules over a Result
type Decision struct {
	Result  Result
	Target  field.Field
	Skipped bool // session complete, no call made
	Usable  bool // a value of the target's kind was present
	Apply   bool
	Update  field.Update
	Err     error // extractor failure, already degraded to confidence 0
}

// ValueFor returns the payload matching the kind of the target field
func (r Result) ValueFor(target field.Field) string {
	switch target.Kind {
	case field.KindInstitution:
		return strings.TrimSpace(r.Institution)
	case field.KindCourse:
		return strings.TrimSpace(r.Course)
	}
	return ""
}

// Decide applies the acceptance rules: confidence strictly above the threshold,
// field id equal to the target, and a non-empty value of the target's kind.
func Decide(r Result, target field.Field) Decision {
	d := Decision{Result: r, Target: target}
	value := r.ValueFor(target)
	d.Usable = value != ""
	if d.Usable && r.Confidence > ConfidenceThreshold && r.Field == target.ID {
		d.Apply = true
		d.Update = field.Update{Field: target.ID, Value: value}
	}
	return d
}

// Propose runs the extractor against the next missing field.
// A complete session makes no call. Extractor errors degrade to confidence 0.
func Propose(ctx context.Context, ex Extractor, schema field.Set, values field.Values, message string) Decision {
	target, missing := schema.NextMissing(values)
	if !missing {
		return Decision{Skipped: true}
	}

	result, err := ex.Extract(ctx, Request{
		Message: message,
		Values:  values,
		Target:  target,
		Schema:  schema,
	})
	if err != nil {
		return Decision{Target: target, Err: err}
	}
	return Decide(result, target)
}

// ReplyInput picks the text handed to the responder for this turn
func (d Decision) ReplyInput(message string) string {
	if d.Skipped || d.Usable {
		return message
	}
	return InvalidInputMarker
}
