package respond

import (
	"fmt"
	"strings"

	"ppm-intake-be/pkg/intake/field"
)

const (
	closingLine = "We will get back to you soon."
	stillNeeded = "Still needed"
)

// BuildSystemPrompt renders the instruction context for one turn.
// Collected and missing fields are listed in schema order; only the earliest missing one is requested.
func BuildSystemPrompt(schema field.Set, values field.Values) string {
	var b strings.Builder

	b.WriteString("Your only task is to collect the information needed. ")
	b.WriteString("Do not ask for anything else except for the pieces of information below.\n\n")
	b.WriteString("IMPORTANT: Do not make assumptions about the user's information or intent.\n")
	b.WriteString("Only collect one piece of information at a time.\n\n")

	b.WriteString("Currently collected:\n")
	for _, f := range schema.Fields() {
		value := values.Get(f.ID)
		if strings.TrimSpace(value) == "" {
			value = stillNeeded
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.Label, value)
	}

	next, missing := schema.NextMissing(values)
	if !missing {
		b.WriteString("\nNext information needed: All information collected\n\n")
		b.WriteString("All information is collected. Summarize it in a concise format and say \"")
		b.WriteString(closingLine)
		b.WriteString("\"\n")
		b.WriteString("Do not answer any other questions and do not ask for any more information.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nNext information needed: %s\n\n", next.Label)
	b.WriteString("IMPORTANT: Let the user know what information you need next.\n")
	b.WriteString("If one piece of information is missing, ask for that piece only.\n")
	return b.String()
}
