package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ppm-intake-be/pkg/events"
)

func TestSubjectRoundTrip(t *testing.T) {
	assert.Equal(t, "events.INTAKE_COMPLETED", Subject(events.IntakeCompleted))
	assert.Equal(t, events.IntakeCompleted, EventType(Subject(events.IntakeCompleted)))
}
