package ratingscale

import (
	"log/slog"

	"meridian/contexts/rating-operations/rating-scale/adapters/memory"
	"meridian/contexts/rating-operations/rating-scale/application"
	"meridian/contexts/rating-operations/rating-scale/ports"
)

type Module struct {
	Classifier application.ClassifierUseCase
	Store      *memory.Store
}

type Dependencies struct {
	Symbols ports.SymbolRepository
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Classifier: application.ClassifierUseCase{
			Symbols: deps.Symbols,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Symbols: store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
