package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/rating-operations/workflow-engine/application/commands"
	"meridian/contexts/rating-operations/workflow-engine/application/queries"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	httptransport "meridian/contexts/rating-operations/workflow-engine/transport/http"
)

type Handler struct {
	Transitions commands.TransitionUseCase
	Frontier    queries.FrontierUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateInstanceHandler(ctx context.Context, userID string, req httptransport.CreateInstanceRequest) (httptransport.InstanceResponse, error) {
	instance, err := h.Transitions.CreateInstance(ctx, commands.CreateInstanceCommand{
		MandateID:       req.MandateID,
		CompanyID:       req.CompanyID,
		FinancialYearID: req.FinancialYearID,
		RatingProcessID: req.RatingProcessID,
		ActingUserID:    userID,
	})
	if err != nil {
		return httptransport.InstanceResponse{}, err
	}
	return httptransport.InstanceResponse{
		InstanceID:      instance.InstanceID,
		MandateID:       instance.MandateID,
		CompanyID:       instance.CompanyID,
		FinancialYearID: instance.FinancialYearID,
		RatingProcessID: instance.RatingProcessID,
		Active:          instance.Active,
	}, nil
}

func (h Handler) AdvanceHandler(ctx context.Context, instanceID string, userID string, req httptransport.AdvanceRequest) (httptransport.AdvanceResponse, error) {
	effectiveDate, err := parseOptionalDate(req.EffectiveDate)
	if err != nil {
		return httptransport.AdvanceResponse{}, domainerrors.ErrInvalidTransitionInput
	}
	result, err := h.Transitions.Advance(ctx, commands.AdvanceCommand{
		InstanceID:         instanceID,
		ActivityCode:       req.ActivityCode,
		ActingUserID:       userID,
		AssignedUserID:     req.AssignedUserID,
		InstrumentDetailID: req.InstrumentDetailID,
		EffectiveDate:      effectiveDate,
	})
	if err != nil {
		return httptransport.AdvanceResponse{}, err
	}
	resp := httptransport.AdvanceResponse{
		InstanceID: result.Instance.InstanceID,
		Terminal:   result.Terminal,
		Activated:  make([]httptransport.PendingStepItem, 0, len(result.Activated)),
	}
	for _, row := range result.Activated {
		resp.Activated = append(resp.Activated, httptransport.PendingStepItem{
			LogID:       row.LogID,
			EdgeID:      row.EdgeID,
			AssignedBy:  row.AssignedBy,
			PerformedBy: row.PerformedBy,
		})
	}
	return resp, nil
}

func (h Handler) RollbackHandler(ctx context.Context, instanceID string, userID string, req httptransport.RollbackRequest) (httptransport.RollbackResponse, error) {
	result, err := h.Transitions.Rollback(ctx, commands.RollbackCommand{
		InstanceID:   instanceID,
		ActivityCode: req.ActivityCode,
		ActingUserID: userID,
		Remark:       req.Remark,
	})
	if err != nil {
		return httptransport.RollbackResponse{}, err
	}
	resp := httptransport.RollbackResponse{
		InstanceID:   result.Instance.InstanceID,
		RollbackID:   result.Entry.RollbackID,
		ActivityCode: result.Entry.ActivityCode,
		Reactivated:  make([]httptransport.PendingStepItem, 0, len(result.Reactivated)),
	}
	for _, row := range result.Reactivated {
		resp.Reactivated = append(resp.Reactivated, httptransport.PendingStepItem{
			LogID:       row.LogID,
			EdgeID:      row.EdgeID,
			AssignedBy:  row.AssignedBy,
			PerformedBy: row.PerformedBy,
		})
	}
	return resp, nil
}

func (h Handler) FrontierHandler(ctx context.Context, instanceID string) (httptransport.FrontierResponse, error) {
	steps, err := h.Frontier.Frontier(ctx, instanceID)
	if err != nil {
		return httptransport.FrontierResponse{}, err
	}
	resp := httptransport.FrontierResponse{
		InstanceID: strings.TrimSpace(instanceID),
		Items:      make([]httptransport.PendingStepItem, 0, len(steps)),
	}
	for _, step := range steps {
		resp.Items = append(resp.Items, httptransport.PendingStepItem{
			LogID:        step.Log.LogID,
			EdgeID:       step.Edge.EdgeID,
			ActivityID:   step.Activity.ActivityID,
			ActivityCode: step.Activity.Code,
			ActivityName: step.Activity.Name,
			AssignedBy:   step.Log.AssignedBy,
			PerformedBy:  step.Log.PerformedBy,
			TATDays:      step.Edge.TATDays,
		})
	}
	return resp, nil
}

func (h Handler) RollbackHistoryHandler(ctx context.Context, instanceID string) (httptransport.RollbackHistoryResponse, error) {
	entries, err := h.Frontier.RollbackHistory(ctx, instanceID)
	if err != nil {
		return httptransport.RollbackHistoryResponse{}, err
	}
	resp := httptransport.RollbackHistoryResponse{
		InstanceID: strings.TrimSpace(instanceID),
		Items:      make([]httptransport.RollbackHistoryItem, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Items = append(resp.Items, httptransport.RollbackHistoryItem{
			RollbackID:   entry.RollbackID,
			ActivityCode: entry.ActivityCode,
			Remark:       entry.Remark,
			CreatedBy:    entry.CreatedBy,
			CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}
