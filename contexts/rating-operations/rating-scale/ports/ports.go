package ports

import (
	"context"

	"meridian/contexts/rating-operations/rating-scale/domain/entities"
)

// SymbolRepository reads the rating-symbol catalog. The catalog is reference
// data mutated only by administrators, so the module exposes no write path.
type SymbolRepository interface {
	// GetMappingByFinalRating resolves the decorated-symbol mapping row.
	// A missing mapping is not an error: undecorated symbols have none.
	GetMappingByFinalRating(ctx context.Context, finalRating string) (entities.SymbolMapping, bool, error)
	// GetSymbol resolves an active bare symbol on the scale.
	GetSymbol(ctx context.Context, symbol string) (entities.RatingSymbol, error)
	ListSymbolsByScale(ctx context.Context, scaleID string) ([]entities.RatingSymbol, error)
}
