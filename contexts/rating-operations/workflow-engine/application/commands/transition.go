package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "meridian/contexts/rating-operations/workflow-engine/application"
	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	"meridian/contexts/rating-operations/workflow-engine/ports"
)

// CreateInstanceCommand starts a rating cycle: one instance per mandate,
// rating process, and financial year.
type CreateInstanceCommand struct {
	MandateID       string
	CompanyID       string
	FinancialYearID string
	RatingProcessID string
	ActingUserID    string
}

// AdvanceCommand performs one activity and moves the ledger frontier to the
// outgoing edges of that activity.
type AdvanceCommand struct {
	InstanceID   string
	ActivityCode string
	ActingUserID string
	// Optional side-effect payload; which fields matter depends on the code.
	AssignedUserID     string
	InstrumentDetailID string
	EffectiveDate      *time.Time
}

// AdvanceResult reports the new frontier. Terminal is set when the performed
// activity had no outgoing edges and a last-activity edge led into it.
type AdvanceResult struct {
	Instance  entities.Instance
	Activated []entities.InstanceLog
	Terminal  bool
}

// TransitionUseCase is the transition dispatcher: side effect first, then the
// graph walk, both inside one atomic boundary.
type TransitionUseCase struct {
	Repo     ports.WorkflowRepository
	Register ports.RegisterGateway
	Atomic   ports.Atomic
	Audit    ports.AuditWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Catalog  application.Catalog
	Logger   *slog.Logger
}

// CreateInstance creates the instance and seeds the ledger with the rating
// process's first edge.
func (uc TransitionUseCase) CreateInstance(ctx context.Context, cmd CreateInstanceCommand) (entities.Instance, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.MandateID) == "" ||
		strings.TrimSpace(cmd.RatingProcessID) == "" ||
		strings.TrimSpace(cmd.FinancialYearID) == "" {
		logger.Warn("instance create validation failed",
			"event", "workflow_instance_create_validation_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"mandate_id", strings.TrimSpace(cmd.MandateID),
		)
		return entities.Instance{}, domainerrors.ErrInvalidTransitionInput
	}

	var instance entities.Instance
	err := uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		now := uc.now()
		if _, found, err := uc.Repo.FindActiveInstance(ctx, cmd.MandateID, cmd.RatingProcessID, cmd.FinancialYearID); err != nil {
			return err
		} else if found {
			return domainerrors.ErrInstanceExists
		}
		if _, err := uc.Repo.GetMandate(ctx, strings.TrimSpace(cmd.MandateID)); err != nil {
			return err
		}

		instanceID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		instance = entities.Instance{
			InstanceID:      instanceID,
			MandateID:       strings.TrimSpace(cmd.MandateID),
			CompanyID:       strings.TrimSpace(cmd.CompanyID),
			FinancialYearID: strings.TrimSpace(cmd.FinancialYearID),
			RatingProcessID: strings.TrimSpace(cmd.RatingProcessID),
			Active:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := uc.Repo.CreateInstance(ctx, instance); err != nil {
			return err
		}

		firstEdge, err := uc.Repo.GetFirstEdge(ctx, instance.RatingProcessID)
		if err != nil {
			return err
		}
		logID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		return uc.Repo.SaveLog(ctx, entities.InstanceLog{
			LogID:       logID,
			InstanceID:  instance.InstanceID,
			EdgeID:      firstEdge.EdgeID,
			Active:      true,
			AssignedBy:  strings.TrimSpace(cmd.ActingUserID),
			PerformedBy: strings.TrimSpace(cmd.ActingUserID),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		return entities.Instance{}, err
	}

	uc.appendAudit(ctx, "workflow.instance.created", instance.MandateID, map[string]any{
		"instance_id":       instance.InstanceID,
		"mandate_id":        instance.MandateID,
		"rating_process_id": instance.RatingProcessID,
		"financial_year_id": instance.FinancialYearID,
		"created_by":        strings.TrimSpace(cmd.ActingUserID),
	})
	logger.Info("workflow instance created",
		"event", "workflow_instance_created",
		"module", "rating-operations/workflow-engine",
		"layer", "application",
		"instance_id", instance.InstanceID,
		"mandate_id", instance.MandateID,
		"rating_process_id", instance.RatingProcessID,
	)
	return instance, nil
}

// Advance applies the activity code's side effect, deactivates the current
// frontier, and activates every outgoing edge of the performed activity.
func (uc TransitionUseCase) Advance(ctx context.Context, cmd AdvanceCommand) (AdvanceResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.InstanceID) == "" ||
		strings.TrimSpace(cmd.ActivityCode) == "" ||
		strings.TrimSpace(cmd.ActingUserID) == "" {
		logger.Warn("advance validation failed",
			"event", "workflow_advance_validation_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"instance_id", strings.TrimSpace(cmd.InstanceID),
			"activity_code", strings.TrimSpace(cmd.ActivityCode),
		)
		return AdvanceResult{}, domainerrors.ErrInvalidTransitionInput
	}

	entry := uc.Catalog.Entry(cmd.ActivityCode)
	var result AdvanceResult
	err := uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		now := uc.now()
		instance, err := uc.Repo.GetInstance(ctx, strings.TrimSpace(cmd.InstanceID))
		if err != nil {
			return err
		}
		if !instance.Active {
			return domainerrors.ErrInvalidState
		}
		result.Instance = instance

		if entry.Apply != nil {
			if err := entry.Apply(ctx, uc.stores(), application.SideEffectInput{
				Instance:           instance,
				ActingUserID:       strings.TrimSpace(cmd.ActingUserID),
				AssignedUserID:     strings.TrimSpace(cmd.AssignedUserID),
				InstrumentDetailID: strings.TrimSpace(cmd.InstrumentDetailID),
				EffectiveDate:      cmd.EffectiveDate,
				Now:                now,
			}); err != nil {
				return err
			}
		}

		activity, err := uc.Repo.GetActivityByCode(ctx, strings.TrimSpace(cmd.ActivityCode))
		if err != nil {
			return err
		}

		frontier, err := uc.Repo.ListActiveLogs(ctx, instance.InstanceID)
		if err != nil {
			return err
		}
		for _, row := range frontier {
			row.Active = false
			row.UpdatedAt = now
			if err := uc.Repo.SaveLog(ctx, row); err != nil {
				return err
			}
		}

		edges, err := uc.Repo.ListOutgoingEdges(ctx, instance.RatingProcessID, activity.ActivityID)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			incoming, err := uc.Repo.ListIncomingEdges(ctx, instance.RatingProcessID, activity.ActivityID)
			if err != nil {
				return err
			}
			for _, edge := range incoming {
				if edge.LastActivity {
					result.Terminal = true
					return nil
				}
			}
			// No successors and nothing marked terminal: configuration gap.
			return domainerrors.ErrEdgeNotFound
		}

		performer, err := uc.resolvePerformer(ctx, entry.Performer, instance, strings.TrimSpace(cmd.ActingUserID))
		if err != nil {
			return err
		}
		for _, edge := range edges {
			logID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			row := entities.InstanceLog{
				LogID:       logID,
				InstanceID:  instance.InstanceID,
				EdgeID:      edge.EdgeID,
				Active:      true,
				AssignedBy:  strings.TrimSpace(cmd.ActingUserID),
				PerformedBy: performer,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := uc.Repo.SaveLog(ctx, row); err != nil {
				return err
			}
			result.Activated = append(result.Activated, row)
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	uc.appendAudit(ctx, "workflow.advanced", result.Instance.MandateID, map[string]any{
		"instance_id":   result.Instance.InstanceID,
		"activity_code": strings.TrimSpace(cmd.ActivityCode),
		"description":   entry.Description,
		"performed_by":  strings.TrimSpace(cmd.ActingUserID),
		"activated":     len(result.Activated),
		"terminal":      result.Terminal,
	})
	logger.Info("workflow advanced",
		"event", "workflow_advanced",
		"module", "rating-operations/workflow-engine",
		"layer", "application",
		"instance_id", result.Instance.InstanceID,
		"activity_code", strings.TrimSpace(cmd.ActivityCode),
		"activated_count", len(result.Activated),
		"terminal", result.Terminal,
	)
	return result, nil
}

func (uc TransitionUseCase) stores() application.SideEffectStores {
	return application.SideEffectStores{
		Workflow: uc.Repo,
		Register: uc.Register,
	}
}

func (uc TransitionUseCase) resolvePerformer(
	ctx context.Context,
	strategy application.PerformerStrategy,
	instance entities.Instance,
	actingUserID string,
) (string, error) {
	switch strategy {
	case application.PerformerGroupHead:
		mandate, err := uc.Repo.GetMandate(ctx, instance.MandateID)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(mandate.GroupHeadID) == "" {
			return "", domainerrors.ErrPerformerUnresolved
		}
		return mandate.GroupHeadID, nil
	case application.PerformerRatingAnalyst:
		mandate, err := uc.Repo.GetMandate(ctx, instance.MandateID)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(mandate.RatingAnalystID) == "" {
			return "", domainerrors.ErrPerformerUnresolved
		}
		return mandate.RatingAnalystID, nil
	default:
		return actingUserID, nil
	}
}

func (uc TransitionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// appendAudit is fire-and-forget: a failed audit append is logged and
// swallowed, never surfaced to the caller.
func (uc TransitionUseCase) appendAudit(ctx context.Context, eventType string, partitionKey string, data map[string]any) {
	if uc.Audit == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Warn("audit id generation failed",
			"event", "workflow_audit_id_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("audit payload marshal failed",
			"event", "workflow_audit_marshal_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    uc.now(),
		SourceService: "meridian",
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}
	if err := uc.Audit.AppendAudit(ctx, envelope); err != nil {
		logger.Warn("audit append failed",
			"event", "workflow_audit_append_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
