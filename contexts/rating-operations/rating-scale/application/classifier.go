package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"meridian/contexts/rating-operations/rating-scale/domain/entities"
	domainerrors "meridian/contexts/rating-operations/rating-scale/domain/errors"
	"meridian/contexts/rating-operations/rating-scale/ports"
)

// ClassifierUseCase compares ratings on the symbol scale. It is a pure
// read path: both report views and the committee consensus write path call
// it and must observe identical classifications.
type ClassifierUseCase struct {
	Symbols ports.SymbolRepository
	Logger  *slog.Logger
}

// Classify compares a previous and a current rating string. Compound ratings
// ("AA/Stable") are reduced to the substring before the first slash. An empty
// previous rating classifies as an initial assignment and skips comparison.
func (uc ClassifierUseCase) Classify(ctx context.Context, previous string, current string) (entities.RatingAction, error) {
	logger := ResolveLogger(uc.Logger)
	if strings.TrimSpace(current) == "" {
		return "", domainerrors.ErrInvalidRatingInput
	}
	if strings.TrimSpace(previous) == "" {
		return entities.RatingActionAssigned, nil
	}

	previousWeight, err := uc.ResolveWeightage(ctx, previous)
	if err != nil {
		return "", err
	}
	currentWeight, err := uc.ResolveWeightage(ctx, current)
	if err != nil {
		return "", err
	}

	action := entities.RatingActionReaffirmed
	switch {
	case previousWeight > currentWeight:
		action = entities.RatingActionDowngraded
	case previousWeight < currentWeight:
		action = entities.RatingActionUpgraded
	}
	logger.Debug("rating action classified",
		"event", "rating_scale_classified",
		"module", "rating-operations/rating-scale",
		"layer", "application",
		"previous", strings.TrimSpace(previous),
		"current", strings.TrimSpace(current),
		"action", string(action),
	)
	return action, nil
}

// ResolveWeightage strips the configured decoration from a possibly compound
// rating string and resolves the bare symbol's weightage. Suffix is stripped
// before prefix, both against the already-stripped value.
func (uc ClassifierUseCase) ResolveWeightage(ctx context.Context, rating string) (float64, error) {
	symbol := BareSymbol(rating)
	if symbol == "" {
		return 0, domainerrors.ErrInvalidRatingInput
	}

	stripped := symbol
	mapping, found, err := uc.Symbols.GetMappingByFinalRating(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if found {
		if mapping.Suffix != "" {
			stripped = strings.TrimSuffix(stripped, mapping.Suffix)
		}
		if mapping.Prefix != "" {
			stripped = strings.TrimPrefix(stripped, mapping.Prefix)
		}
	}

	row, err := uc.Symbols.GetSymbol(ctx, stripped)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSymbolNotFound) {
			return 0, fmt.Errorf("%w: %s", domainerrors.ErrSymbolNotFound, symbol)
		}
		return 0, err
	}
	return row.Weightage, nil
}

// BareSymbol reduces a compound rating string ("A1+/Stable") to the symbol
// part before the first slash.
func BareSymbol(rating string) string {
	trimmed := strings.TrimSpace(rating)
	if index := strings.Index(trimmed, "/"); index >= 0 {
		trimmed = trimmed[:index]
	}
	return strings.TrimSpace(trimmed)
}
