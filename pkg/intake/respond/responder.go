package respond

import (
	"context"
	"strings"

	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/transcript"
	"ppm-intake-be/pkg/llm"
)

// DegradedReply is returned when the model cannot produce a reply
const DegradedReply = "I'm having trouble responding right now. Please try again in a moment."

const (
	DefaultTemperature  = 0.9
	DefaultTopP         = 0.8
	DefaultHistoryTurns = 6
)

type Request struct {
	Message string // already substituted with the invalid-input marker when needed
	Schema  field.Set
	Values  field.Values
	History []transcript.Turn // prior turns, oldest first
}

type Reply struct {
	Text     string
	Degraded bool
}

// Responder produces the assistant's next utterance. It never fails;
// model errors come back as a degraded reply.
type Responder interface {
	Respond(ctx context.Context, req Request) Reply
}

type Config struct {
	Temperature  float64
	TopP         float64
	HistoryTurns int
}

func (c Config) withDefaults() Config {
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.TopP <= 0 {
		c.TopP = DefaultTopP
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = DefaultHistoryTurns
	}
	return c
}

type LLMResponder struct {
	provider llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

var _ Responder = (*LLMResponder)(nil)

func NewLLMResponder(provider llm.LLMProvider, cfg Config, log logger.ILogger) *LLMResponder {
	return &LLMResponder{provider: provider, cfg: cfg.withDefaults(), logger: log}
}

func (r *LLMResponder) Respond(ctx context.Context, req Request) Reply {
	messages := r.buildMessages(req)

	text, err := r.provider.Chat(ctx, messages,
		llm.WithTemperature(r.cfg.Temperature),
		llm.WithTopP(r.cfg.TopP),
	)
	if err != nil {
		r.logger.Warn("Responder", "reply generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Reply{Text: DegradedReply, Degraded: true}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		r.logger.Warn("Responder", "model returned an empty reply", nil)
		return Reply{Text: DegradedReply, Degraded: true}
	}
	return Reply{Text: text}
}

func (r *LLMResponder) buildMessages(req Request) []llm.Message {
	history := req.History
	if len(history) > r.cfg.HistoryTurns {
		history = history[len(history)-r.cfg.HistoryTurns:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: BuildSystemPrompt(req.Schema, req.Values)})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: transcript.RoleUser, Content: req.Message})
	return messages
}
