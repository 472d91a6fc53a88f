package queries

import (
	"context"
	"strings"

	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	"meridian/contexts/rating-operations/workflow-engine/ports"
)

// PendingStep joins an active ledger row with its edge and the activity it
// is waiting on. Drives user inbox views.
type PendingStep struct {
	Log      entities.InstanceLog
	Edge     entities.Edge
	Activity entities.Activity
}

type FrontierUseCase struct {
	Repo ports.WorkflowRepository
}

// Frontier returns the instance's currently pending steps.
func (uc FrontierUseCase) Frontier(ctx context.Context, instanceID string) ([]PendingStep, error) {
	if _, err := uc.Repo.GetInstance(ctx, strings.TrimSpace(instanceID)); err != nil {
		return nil, err
	}
	logs, err := uc.Repo.ListActiveLogs(ctx, strings.TrimSpace(instanceID))
	if err != nil {
		return nil, err
	}
	steps := make([]PendingStep, 0, len(logs))
	for _, row := range logs {
		edge, err := uc.Repo.GetEdge(ctx, row.EdgeID)
		if err != nil {
			return nil, err
		}
		activity, err := uc.Repo.GetActivity(ctx, edge.NextActivityID)
		if err != nil {
			return nil, err
		}
		steps = append(steps, PendingStep{
			Log:      row,
			Edge:     edge,
			Activity: activity,
		})
	}
	return steps, nil
}

// RollbackHistory lists the audit records of past rollbacks.
func (uc FrontierUseCase) RollbackHistory(ctx context.Context, instanceID string) ([]entities.RollbackEntry, error) {
	if _, err := uc.Repo.GetInstance(ctx, strings.TrimSpace(instanceID)); err != nil {
		return nil, err
	}
	return uc.Repo.ListRollbackEntries(ctx, strings.TrimSpace(instanceID))
}
