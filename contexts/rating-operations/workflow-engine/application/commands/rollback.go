package commands

import (
	"context"
	"strings"

	application "meridian/contexts/rating-operations/workflow-engine/application"
	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
)

// RollbackCommand reverts a performed activity: the rows it activated are
// marked rollback, and fresh active rows revive the predecessor edges.
type RollbackCommand struct {
	InstanceID   string
	ActivityCode string
	ActingUserID string
	Remark       string
}

type RollbackResult struct {
	Instance    entities.Instance
	Reactivated []entities.InstanceLog
	Entry       entities.RollbackEntry
}

// Rollback is the partial inverse of Advance for the same code. Side effects
// are compensated only for codes with a configured compensation.
func (uc TransitionUseCase) Rollback(ctx context.Context, cmd RollbackCommand) (RollbackResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.InstanceID) == "" ||
		strings.TrimSpace(cmd.ActivityCode) == "" ||
		strings.TrimSpace(cmd.ActingUserID) == "" {
		logger.Warn("rollback validation failed",
			"event", "workflow_rollback_validation_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "application",
			"instance_id", strings.TrimSpace(cmd.InstanceID),
			"activity_code", strings.TrimSpace(cmd.ActivityCode),
		)
		return RollbackResult{}, domainerrors.ErrInvalidTransitionInput
	}

	entry := uc.Catalog.Entry(cmd.ActivityCode)
	var result RollbackResult
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

		activity, err := uc.Repo.GetActivityByCode(ctx, strings.TrimSpace(cmd.ActivityCode))
		if err != nil {
			return err
		}

		// Rolling back past the start of the graph is not representable:
		// the first activity has no incoming edge to revive.
		incoming, err := uc.Repo.ListIncomingEdges(ctx, instance.RatingProcessID, activity.ActivityID)
		if err != nil {
			return err
		}
		if len(incoming) == 0 {
			return domainerrors.ErrInvalidState
		}

		frontier, err := uc.Repo.ListActiveLogs(ctx, instance.InstanceID)
		if err != nil {
			return err
		}
		for _, row := range frontier {
			row.Active = false
			row.Status = entities.LogStatusRollback
			row.UpdatedAt = now
			if err := uc.Repo.SaveLog(ctx, row); err != nil {
				return err
			}
		}

		// Revive the predecessor edges' log context with new rows; old rows
		// are never flipped back.
		history, err := uc.Repo.ListLogs(ctx, instance.InstanceID)
		if err != nil {
			return err
		}
		for _, edge := range incoming {
			assignedBy := strings.TrimSpace(cmd.ActingUserID)
			performedBy := strings.TrimSpace(cmd.ActingUserID)
			for i := len(history) - 1; i >= 0; i-- {
				if history[i].EdgeID == edge.EdgeID {
					assignedBy = history[i].AssignedBy
					performedBy = history[i].PerformedBy
					break
				}
			}
			logID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			row := entities.InstanceLog{
				LogID:       logID,
				InstanceID:  instance.InstanceID,
				EdgeID:      edge.EdgeID,
				Active:      true,
				AssignedBy:  assignedBy,
				PerformedBy: performedBy,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := uc.Repo.SaveLog(ctx, row); err != nil {
				return err
			}
			result.Reactivated = append(result.Reactivated, row)
		}

		if entry.Compensate != nil {
			if err := entry.Compensate(ctx, uc.stores(), application.SideEffectInput{
				Instance:     instance,
				ActingUserID: strings.TrimSpace(cmd.ActingUserID),
				Now:          now,
			}); err != nil {
				return err
			}
		}

		rollbackID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		result.Entry = entities.RollbackEntry{
			RollbackID:   rollbackID,
			InstanceID:   instance.InstanceID,
			ActivityCode: strings.TrimSpace(cmd.ActivityCode),
			Remark:       strings.TrimSpace(cmd.Remark),
			CreatedBy:    strings.TrimSpace(cmd.ActingUserID),
			CreatedAt:    now,
		}
		return uc.Repo.AppendRollbackEntry(ctx, result.Entry)
	})
	if err != nil {
		return RollbackResult{}, err
	}

	uc.appendAudit(ctx, "workflow.rolled_back", result.Instance.MandateID, map[string]any{
		"instance_id":   result.Instance.InstanceID,
		"activity_code": strings.TrimSpace(cmd.ActivityCode),
		"remark":        strings.TrimSpace(cmd.Remark),
		"rolled_by":     strings.TrimSpace(cmd.ActingUserID),
		"reactivated":   len(result.Reactivated),
	})
	logger.Info("workflow rolled back",
		"event", "workflow_rolled_back",
		"module", "rating-operations/workflow-engine",
		"layer", "application",
		"instance_id", result.Instance.InstanceID,
		"activity_code", strings.TrimSpace(cmd.ActivityCode),
		"reactivated_count", len(result.Reactivated),
	)
	return result, nil
}
