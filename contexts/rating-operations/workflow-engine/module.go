package workflowengine

import (
	"log/slog"

	httpadapter "meridian/contexts/rating-operations/workflow-engine/adapters/http"
	"meridian/contexts/rating-operations/workflow-engine/adapters/memory"
	"meridian/contexts/rating-operations/workflow-engine/application"
	"meridian/contexts/rating-operations/workflow-engine/application/commands"
	"meridian/contexts/rating-operations/workflow-engine/application/queries"
	"meridian/contexts/rating-operations/workflow-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.WorkflowRepository
	Register   ports.RegisterGateway
	Atomic     ports.Atomic
	Audit      ports.AuditWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Catalog    application.Catalog
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = application.NewCatalog()
	}
	transitions := commands.TransitionUseCase{
		Repo:     deps.Repository,
		Register: deps.Register,
		Atomic:   deps.Atomic,
		Audit:    deps.Audit,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Catalog:  catalog,
		Logger:   deps.Logger,
	}
	frontier := queries.FrontierUseCase{
		Repo: deps.Repository,
	}
	return Module{
		Handler: httpadapter.Handler{
			Transitions: transitions,
			Frontier:    frontier,
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Register:   store,
		Atomic:     store,
		Audit:      store,
		Clock:      store,
		IDGen:      store,
		Catalog:    application.NewCatalog(),
		Logger:     logger,
	})
	module.Store = store
	return module
}
