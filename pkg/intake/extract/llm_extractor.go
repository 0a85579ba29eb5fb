package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/llm"
)

// ErrMalformedOutput is returned when the model output is not the requested JSON object
var ErrMalformedOutput = errors.New("malformed extraction output")

// informationUpdateSchema is the structured output requested from the model
var informationUpdateSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "new_university": {"type": ["string", "null"], "description": "New university name mentioned"},
    "new_course": {"type": ["string", "null"], "description": "New course name mentioned"},
    "field_to_update": {"type": ["string", "null"], "enum": ["u1", "c1", "u2", "c2", null]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["confidence"]
}`)

type informationUpdate struct {
	NewUniversity *string  `json:"new_university"`
	NewCourse     *string  `json:"new_course"`
	FieldToUpdate *string  `json:"field_to_update"`
	Confidence    *float64 `json:"confidence"`
}

// LLMExtractor asks a language model for a schema-constrained information update
type LLMExtractor struct {
	provider    llm.LLMProvider
	temperature float64
}

var _ Extractor = (*LLMExtractor)(nil)

func NewLLMExtractor(provider llm.LLMProvider, temperature float64) *LLMExtractor {
	return &LLMExtractor{provider: provider, temperature: temperature}
}

func (e *LLMExtractor) Extract(ctx context.Context, req Request) (Result, error) {
	raw, err := e.provider.Chat(ctx,
		[]llm.Message{{Role: "user", Content: buildPrompt(req)}},
		llm.WithTemperature(e.temperature),
		llm.WithJSONSchema(informationUpdateSchema),
	)
	if err != nil {
		return Result{}, fmt.Errorf("extraction call: %w", err)
	}
	return parseResult(raw)
}

func buildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this user message for information: %q\n\n", req.Message)
	b.WriteString("Current collected information:\n")
	for _, f := range req.Schema.Fields() {
		value := req.Values.Get(f.ID)
		if value == "" {
			value = "Not collected"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Label, f.ID, value)
	}

	fmt.Fprintf(&b, "\nNext field needed: %s (%s)\n\n", req.Target.ID, req.Target.Label)
	b.WriteString("IMPORTANT RULES:\n")
	switch req.Target.Kind {
	case field.KindCourse:
		b.WriteString("- You are looking for a COURSE: extract any academic subject, major, program, or field of study mentioned into new_course\n")
		b.WriteString("- Course examples: \"Computer Science\", \"Data Visualization\", \"Psychology\", \"Business Administration\"\n")
	default:
		b.WriteString("- You are looking for a UNIVERSITY: extract any college, university, or institution name mentioned into new_university\n")
		b.WriteString("- University examples: \"Stanford\", \"MIT\", \"San Francisco State University\", \"San Jose State University\"\n")
	}
	b.WriteString("- Set confidence HIGH (0.8+) only if the information is clearly present, LOW (below 0.3) otherwise\n")
	fmt.Fprintf(&b, "- Set field_to_update to: %s\n", req.Target.ID)
	fmt.Fprintf(&b, "- Focus ONLY on the next needed field: %s\n", req.Target.ID)
	b.WriteString("Respond with a single JSON object.\n")

	return b.String()
}

func parseResult(raw string) (Result, error) {
	body := strings.TrimSpace(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return Result{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedOutput, truncate(body, 80))
	}

	var upd informationUpdate
	if err := json.Unmarshal([]byte(body[start:end+1]), &upd); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if upd.Confidence == nil {
		return Result{}, fmt.Errorf("%w: missing confidence", ErrMalformedOutput)
	}

	r := Result{Confidence: clamp(*upd.Confidence)}
	if upd.FieldToUpdate != nil {
		r.Field = field.ID(strings.ToLower(strings.TrimSpace(*upd.FieldToUpdate)))
	}
	if upd.NewUniversity != nil {
		r.Institution = strings.TrimSpace(*upd.NewUniversity)
	}
	if upd.NewCourse != nil {
		r.Course = strings.TrimSpace(*upd.NewCourse)
	}
	return r, nil
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// truncate keeps the first n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
