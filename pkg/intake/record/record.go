package record

import (
	"context"
	"time"

	"ppm-intake-be/pkg/intake/field"
)

// Record is the durable artifact written once a session has every field
type Record struct {
	SessionID   string       `json:"session_id"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Fields      field.Values `json:"collected_info"`
}

// Store persists one record per session. Save overwrites an existing record.
// Load reports found=false, without error, when nothing was stored.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, sessionID string) (Record, bool, error)
}

// Notifier is told about each completion after the save attempt
type Notifier interface {
	NotifyCompleted(ctx context.Context, rec Record) error
}

// NopNotifier drops every notification
type NopNotifier struct{}

func (NopNotifier) NotifyCompleted(context.Context, Record) error { return nil }
