package committeeengine

import (
	"log/slog"

	httpadapter "meridian/contexts/rating-operations/committee-engine/adapters/http"
	"meridian/contexts/rating-operations/committee-engine/adapters/memory"
	"meridian/contexts/rating-operations/committee-engine/application"
	"meridian/contexts/rating-operations/committee-engine/application/commands"
	"meridian/contexts/rating-operations/committee-engine/application/queries"
	"meridian/contexts/rating-operations/committee-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Gateway application.GatewayUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.CommitteeRepository
	Classifier ports.Classifier
	Atomic     ports.Atomic
	Audit      ports.AuditWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	meetings := commands.MeetingUseCase{
		Repo:   deps.Repository,
		Atomic: deps.Atomic,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	ballots := commands.BallotUseCase{
		Repo:       deps.Repository,
		Classifier: deps.Classifier,
		Atomic:     deps.Atomic,
		Audit:      deps.Audit,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	summary := queries.SummaryUseCase{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Meetings: meetings,
			Ballots:  ballots,
			Summary:  summary,
			Logger:   deps.Logger,
		},
		Gateway: application.GatewayUseCase{
			Repo:   deps.Repository,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(classifier ports.Classifier, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Classifier: classifier,
		Atomic:     store,
		Audit:      store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
