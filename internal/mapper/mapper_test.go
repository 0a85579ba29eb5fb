package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-intake-be/internal/model"
	"ppm-intake-be/pkg/intake/cache"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
)

func TestExchangeMapperInvalidIDLeftToDatabase(t *testing.T) {
	m := NewExchangeMapper().ToModel(cache.Exchange{ID: "not-a-uuid", SessionID: "s"}, []float32{1})
	assert.Equal(t, uuid.Nil, m.Id)
	assert.Equal(t, []float32{1}, m.EmbeddingValue.Slice())
}

func TestExchangeMapperToDomain(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	got := NewExchangeMapper().ToDomain(&model.Exchange{
		Id: id, SessionId: "s", UserText: "MIT", AssistantText: "ok", Cached: true, CreatedAt: ts,
	})

	assert.Equal(t, cache.Exchange{
		ID: id.String(), SessionID: "s", UserText: "MIT", AssistantText: "ok", Cached: true, Timestamp: ts,
	}, got)
}

func TestRecordMapperKeepsFieldKeys(t *testing.T) {
	m := NewRecordMapper()
	rec := record.Record{
		SessionID:   "s",
		CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC),
		Fields:      field.Values{U1: "Stanford", C1: "CS", U2: "MIT", C2: "Math"},
	}

	row, err := m.ToModel(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"u1":"Stanford","c1":"CS","u2":"MIT","c2":"Math"}`, string(row.CollectedInfo))

	back, err := m.ToDomain(row)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
}

func TestRecordMapperRejectsCorruptJSON(t *testing.T) {
	_, err := NewRecordMapper().ToDomain(&model.IntakeRecord{SessionId: "s", CollectedInfo: []byte(`{`)})
	assert.Error(t, err)
}
