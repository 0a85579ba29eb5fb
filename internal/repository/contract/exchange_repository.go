package contract

import (
	"context"

	"ppm-intake-be/internal/repository/specification"
	"ppm-intake-be/pkg/intake/cache"
)

// ExchangeRepository is the vector index behind the semantic cache
type ExchangeRepository interface {
	cache.Index
	FindAll(ctx context.Context, specs ...specification.Specification) ([]cache.Exchange, error)
	CountBy(ctx context.Context, specs ...specification.Specification) (int64, error)
}
