package events

import (
	"time"

	"ppm-intake-be/pkg/intake/record"
)

const (
	IntakeCompleted = "INTAKE_COMPLETED"
)

// NewIntakeCompletedEvent carries the final record of a session
func NewIntakeCompletedEvent(rec record.Record) BaseEvent {
	return BaseEvent{
		Type: IntakeCompleted,
		Data: map[string]interface{}{
			"session_id":   rec.SessionID,
			"created_at":   rec.CreatedAt.Format(time.RFC3339),
			"completed_at": rec.CompletedAt.Format(time.RFC3339),
			"collected_info": map[string]string{
				"u1": rec.Fields.U1,
				"c1": rec.Fields.C1,
				"u2": rec.Fields.U2,
				"c2": rec.Fields.C2,
			},
		},
		OccurredAt: rec.CompletedAt,
	}
}
