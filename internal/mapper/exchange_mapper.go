package mapper

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"ppm-intake-be/internal/model"
	"ppm-intake-be/pkg/intake/cache"
)

type ExchangeMapper struct{}

func NewExchangeMapper() *ExchangeMapper {
	return &ExchangeMapper{}
}

func (m *ExchangeMapper) ToDomain(e *model.Exchange) cache.Exchange {
	return cache.Exchange{
		ID:            e.Id.String(),
		SessionID:     e.SessionId,
		UserText:      e.UserText,
		AssistantText: e.AssistantText,
		Cached:        e.Cached,
		Timestamp:     e.CreatedAt.UTC(),
	}
}

// ToModel keeps a valid exchange id, otherwise the database assigns one
func (m *ExchangeMapper) ToModel(e cache.Exchange, embedding []float32) *model.Exchange {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.Nil
	}
	return &model.Exchange{
		Id:             id,
		SessionId:      e.SessionID,
		UserText:       e.UserText,
		AssistantText:  e.AssistantText,
		Cached:         e.Cached,
		EmbeddingValue: pgvector.NewVector(embedding),
		CreatedAt:      e.Timestamp,
	}
}

func (m *ExchangeMapper) ToDomains(models []*model.Exchange) []cache.Exchange {
	out := make([]cache.Exchange, len(models))
	for i, e := range models {
		out[i] = m.ToDomain(e)
	}
	return out
}
