package implementation

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ppm-intake-be/internal/mapper"
	"ppm-intake-be/internal/model"
	"ppm-intake-be/internal/repository/contract"
	"ppm-intake-be/internal/repository/specification"
	"ppm-intake-be/pkg/embedding"
	"ppm-intake-be/pkg/intake/cache"
)

type ExchangeRepositoryImpl struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
	mapper   *mapper.ExchangeMapper
}

func NewExchangeRepository(db *gorm.DB, embedder embedding.EmbeddingProvider) contract.ExchangeRepository {
	return &ExchangeRepositoryImpl{
		db:       db,
		embedder: embedder,
		mapper:   mapper.NewExchangeMapper(),
	}
}

func (r *ExchangeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Insert embeds the user text only; the reply is stored as payload
func (r *ExchangeRepositoryImpl) Insert(ctx context.Context, ex cache.Exchange) error {
	vec, err := r.embedder.Generate(ctx, ex.UserText)
	if err != nil {
		return fmt.Errorf("embed user text: %w", err)
	}
	m := r.mapper.ToModel(ex, vec)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ExchangeRepositoryImpl) Nearest(ctx context.Context, sessionID, text string, maxDistance float64, limit int) ([]cache.Match, error) {
	if limit <= 0 {
		limit = 1
	}
	vec, err := r.embedder.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// pgvector cosine distance: embedding_value <=> query
	type result struct {
		model.Exchange
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(vec)
	err = r.db.WithContext(ctx).
		Table(model.Exchange{}.TableName()).
		Select("intake_exchanges.*, embedding_value <=> ? AS distance", queryVector).
		Where("session_id = ?", sessionID).
		Where("embedding_value <=> ? < ?", queryVector, maxDistance).
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]cache.Match, len(results))
	for i := range results {
		matches[i] = cache.Match{
			Exchange: r.mapper.ToDomain(&results[i].Exchange),
			Distance: results[i].Distance,
		}
	}
	return matches, nil
}

func (r *ExchangeRepositoryImpl) History(ctx context.Context, sessionID string, page cache.Page) ([]cache.Exchange, error) {
	specs := []specification.Specification{
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
	}
	if page.Limit > 0 || page.Offset > 0 {
		specs = append(specs, specification.Pagination{Limit: page.Limit, Offset: page.Offset})
	}
	return r.FindAll(ctx, specs...)
}

func (r *ExchangeRepositoryImpl) Count(ctx context.Context, sessionID string) (int, error) {
	n, err := r.CountBy(ctx, specification.BySessionID{SessionID: sessionID})
	return int(n), err
}

func (r *ExchangeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]cache.Exchange, error) {
	var models []*model.Exchange
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Omit("embedding_value").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomains(models), nil
}

func (r *ExchangeRepositoryImpl) CountBy(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Exchange{}).Count(&count).Error
	return count, err
}

func (r *ExchangeRepositoryImpl) Clear(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.Exchange{}).Error
}

func (r *ExchangeRepositoryImpl) ClearAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Exchange{}).Error
}
