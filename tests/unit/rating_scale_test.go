package unit

import (
	"context"
	"errors"
	"testing"

	ratingscale "meridian/contexts/rating-operations/rating-scale"
	"meridian/contexts/rating-operations/rating-scale/application"
	"meridian/contexts/rating-operations/rating-scale/domain/entities"
	domainerrors "meridian/contexts/rating-operations/rating-scale/domain/errors"
)

func seedLongTermScale(module ratingscale.Module) {
	module.Store.SetSymbol(entities.RatingSymbol{
		SymbolID:  "sym-aaa",
		Symbol:    "AAA",
		Weightage: 95,
		ScaleID:   "long-term",
		Active:    true,
	})
	module.Store.SetSymbol(entities.RatingSymbol{
		SymbolID:  "sym-aa",
		Symbol:    "AA",
		Weightage: 90,
		ScaleID:   "long-term",
		Active:    true,
	})
	module.Store.SetSymbol(entities.RatingSymbol{
		SymbolID:  "sym-a",
		Symbol:    "A",
		Weightage: 80,
		ScaleID:   "long-term",
		Active:    true,
	})
	module.Store.SetMapping(entities.SymbolMapping{
		MappingID:   "map-aa-plus",
		Suffix:      "+",
		FinalRating: "AA+",
	})
	module.Store.SetMapping(entities.SymbolMapping{
		MappingID:   "map-ir-aa",
		Prefix:      "IR ",
		FinalRating: "IR AA",
	})
}

func TestClassifyInitialAssignment(t *testing.T) {
	module := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(module)

	action, err := module.Classifier.Classify(context.Background(), "", "AA")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if action != entities.RatingActionAssigned {
		t.Fatalf("expected Assigned, got %s", action)
	}
}

func TestClassifyUpgradeDowngradeReaffirm(t *testing.T) {
	module := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(module)
	ctx := context.Background()

	action, err := module.Classifier.Classify(ctx, "A", "AA")
	if err != nil {
		t.Fatalf("classify upgrade failed: %v", err)
	}
	if action != entities.RatingActionUpgraded {
		t.Fatalf("expected Upgraded, got %s", action)
	}

	action, err = module.Classifier.Classify(ctx, "AAA", "AA")
	if err != nil {
		t.Fatalf("classify downgrade failed: %v", err)
	}
	if action != entities.RatingActionDowngraded {
		t.Fatalf("expected Downgraded, got %s", action)
	}

	action, err = module.Classifier.Classify(ctx, "AA", "AA")
	if err != nil {
		t.Fatalf("classify reaffirm failed: %v", err)
	}
	if action != entities.RatingActionReaffirmed {
		t.Fatalf("expected Reaffirmed, got %s", action)
	}
}

func TestClassifyStripsDecorationViaMapping(t *testing.T) {
	module := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(module)
	ctx := context.Background()

	// "AA+" resolves through its mapping to the bare symbol "AA", so it
	// reaffirms against "AA" rather than failing the lookup.
	action, err := module.Classifier.Classify(ctx, "AA+", "AA")
	if err != nil {
		t.Fatalf("classify suffix strip failed: %v", err)
	}
	if action != entities.RatingActionReaffirmed {
		t.Fatalf("expected Reaffirmed, got %s", action)
	}

	action, err = module.Classifier.Classify(ctx, "IR AA", "A")
	if err != nil {
		t.Fatalf("classify prefix strip failed: %v", err)
	}
	if action != entities.RatingActionDowngraded {
		t.Fatalf("expected Downgraded, got %s", action)
	}
}

func TestClassifyCompoundRatingUsesSymbolPart(t *testing.T) {
	module := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(module)

	action, err := module.Classifier.Classify(context.Background(), "A/Stable", "AA/Positive")
	if err != nil {
		t.Fatalf("classify compound failed: %v", err)
	}
	if action != entities.RatingActionUpgraded {
		t.Fatalf("expected Upgraded, got %s", action)
	}
}

func TestClassifyUnknownSymbol(t *testing.T) {
	module := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(module)

	_, err := module.Classifier.Classify(context.Background(), "AA", "ZZZ")
	if !errors.Is(err, domainerrors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}

	_, err = module.Classifier.Classify(context.Background(), "AA", "")
	if !errors.Is(err, domainerrors.ErrInvalidRatingInput) {
		t.Fatalf("expected ErrInvalidRatingInput, got %v", err)
	}
}

// faultySymbolRepo fails symbol lookups the way a broken store would, so the
// classifier's error mapping can be observed in isolation.
type faultySymbolRepo struct{}

var errSymbolStore = errors.New("symbol store unavailable")

func (faultySymbolRepo) GetMappingByFinalRating(context.Context, string) (entities.SymbolMapping, bool, error) {
	return entities.SymbolMapping{}, false, nil
}

func (faultySymbolRepo) GetSymbol(context.Context, string) (entities.RatingSymbol, error) {
	return entities.RatingSymbol{}, errSymbolStore
}

func (faultySymbolRepo) ListSymbolsByScale(context.Context, string) ([]entities.RatingSymbol, error) {
	return nil, errSymbolStore
}

func TestClassifyPropagatesStoreFailure(t *testing.T) {
	uc := application.ClassifierUseCase{Symbols: faultySymbolRepo{}}

	_, err := uc.Classify(context.Background(), "A", "AA")
	if !errors.Is(err, errSymbolStore) {
		t.Fatalf("expected the store failure to propagate, got %v", err)
	}
	if errors.Is(err, domainerrors.ErrSymbolNotFound) {
		t.Fatalf("store failures must not read as missing symbols")
	}
}
