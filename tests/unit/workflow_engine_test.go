package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	workflowengine "meridian/contexts/rating-operations/workflow-engine"
	workflowworkers "meridian/contexts/rating-operations/workflow-engine/application/workers"
	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	"meridian/contexts/rating-operations/workflow-engine/ports"
	httptransport "meridian/contexts/rating-operations/workflow-engine/transport/http"
)

// seedLinearProcess wires proc-1 as intake -> analysis -> review with the
// review step marked last.
func seedLinearProcess(module workflowengine.Module) {
	module.Store.SetActivity(entities.Activity{ActivityID: "act-intake", Code: "10100", Name: "Assign Group Head", Active: true})
	module.Store.SetActivity(entities.Activity{ActivityID: "act-analysis", Code: "10200", Name: "Information Received", Active: true})
	module.Store.SetActivity(entities.Activity{ActivityID: "act-review", Code: "10300", Name: "Draft Note Completed", Active: true})

	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-start",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-zero",
		NextActivityID:    "act-intake",
		SerialNumber:      1,
		Active:            true,
	})
	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-intake-analysis",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-intake",
		NextActivityID:    "act-analysis",
		SerialNumber:      2,
		Active:            true,
	})
	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-analysis-review",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-analysis",
		NextActivityID:    "act-review",
		SerialNumber:      3,
		LastActivity:      true,
		Active:            true,
	})

	module.Store.SetMandate(ports.Mandate{
		MandateID:       "mandate-1",
		CompanyID:       "company-1",
		Status:          "Mandate Received",
		RatingAnalystID: "ra-1",
	})
}

func createInstance(t *testing.T, module workflowengine.Module) httptransport.InstanceResponse {
	t.Helper()
	instance, err := module.Handler.CreateInstanceHandler(context.Background(), "user-1", httptransport.CreateInstanceRequest{
		MandateID:       "mandate-1",
		CompanyID:       "company-1",
		FinancialYearID: "fy-2026",
		RatingProcessID: "proc-1",
	})
	if err != nil {
		t.Fatalf("create instance failed: %v", err)
	}
	return instance
}

func TestCreateInstanceSeedsFirstEdge(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)

	instance := createInstance(t, module)

	frontier, err := module.Handler.FrontierHandler(context.Background(), instance.InstanceID)
	if err != nil {
		t.Fatalf("frontier failed: %v", err)
	}
	if len(frontier.Items) != 1 {
		t.Fatalf("expected one pending step, got %d", len(frontier.Items))
	}
	if frontier.Items[0].EdgeID != "edge-start" {
		t.Fatalf("expected edge-start pending, got %s", frontier.Items[0].EdgeID)
	}

	_, err = module.Handler.CreateInstanceHandler(context.Background(), "user-1", httptransport.CreateInstanceRequest{
		MandateID:       "mandate-1",
		CompanyID:       "company-1",
		FinancialYearID: "fy-2026",
		RatingProcessID: "proc-1",
	})
	if !errors.Is(err, domainerrors.ErrInstanceExists) {
		t.Fatalf("expected ErrInstanceExists, got %v", err)
	}
}

func TestAdvanceMovesFrontierAndResolvesPerformer(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	ctx := context.Background()
	instance := createInstance(t, module)

	resp, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode:   "10100",
		AssignedUserID: "gh-1",
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if len(resp.Activated) != 1 || resp.Activated[0].EdgeID != "edge-intake-analysis" {
		t.Fatalf("expected edge-intake-analysis activated, got %+v", resp.Activated)
	}
	if resp.Activated[0].PerformedBy != "gh-1" {
		t.Fatalf("expected assigned group head as performer, got %s", resp.Activated[0].PerformedBy)
	}

	mandate, err := module.Store.GetMandate(ctx, "mandate-1")
	if err != nil {
		t.Fatalf("get mandate failed: %v", err)
	}
	if mandate.GroupHeadID != "gh-1" || mandate.Status != "Group Head Assigned" {
		t.Fatalf("expected group head side effect, got %+v", mandate)
	}

	frontier, err := module.Handler.FrontierHandler(ctx, instance.InstanceID)
	if err != nil {
		t.Fatalf("frontier failed: %v", err)
	}
	if len(frontier.Items) != 1 || frontier.Items[0].EdgeID != "edge-intake-analysis" {
		t.Fatalf("expected single frontier row on edge-intake-analysis, got %+v", frontier.Items)
	}
}

func TestAdvanceRequiresAssigneeForAssignmentCodes(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	instance := createInstance(t, module)

	_, err := module.Handler.AdvanceHandler(context.Background(), instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10100",
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransitionInput) {
		t.Fatalf("expected ErrInvalidTransitionInput, got %v", err)
	}
}

func TestAdvanceUnknownCodeIsAdvanceOnly(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	// Reference data may carry codes the dispatcher has no entry for.
	module.Store.SetActivity(entities.Activity{ActivityID: "act-intake-alt", Code: "19999", Name: "Custom Step", Active: true})
	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-alt",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-intake-alt",
		NextActivityID:    "act-analysis",
		SerialNumber:      9,
		Active:            true,
	})
	ctx := context.Background()
	instance := createInstance(t, module)

	resp, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "19999",
	})
	if err != nil {
		t.Fatalf("advance with unknown code failed: %v", err)
	}
	if len(resp.Activated) != 1 || resp.Activated[0].PerformedBy != "user-1" {
		t.Fatalf("expected acting user to perform, got %+v", resp.Activated)
	}

	mandate, err := module.Store.GetMandate(ctx, "mandate-1")
	if err != nil {
		t.Fatalf("get mandate failed: %v", err)
	}
	if mandate.Status != "Mandate Received" {
		t.Fatalf("unknown code must not mutate mandate, got status %s", mandate.Status)
	}
}

func TestAdvanceTerminalStep(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	ctx := context.Background()
	instance := createInstance(t, module)

	if _, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode:   "10100",
		AssignedUserID: "gh-1",
	}); err != nil {
		t.Fatalf("advance intake failed: %v", err)
	}
	if _, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10200",
	}); err != nil {
		t.Fatalf("advance analysis failed: %v", err)
	}

	resp, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10300",
	})
	if err != nil {
		t.Fatalf("advance review failed: %v", err)
	}
	if !resp.Terminal || len(resp.Activated) != 0 {
		t.Fatalf("expected terminal advance, got %+v", resp)
	}

	frontier, err := module.Handler.FrontierHandler(ctx, instance.InstanceID)
	if err != nil {
		t.Fatalf("frontier failed: %v", err)
	}
	if len(frontier.Items) != 0 {
		t.Fatalf("expected empty frontier after terminal step, got %+v", frontier.Items)
	}
}

func TestRollbackRestoresPredecessorEdges(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	// Fan the analysis step out to a second branch.
	module.Store.SetActivity(entities.Activity{ActivityID: "act-branch", Code: "10350", Name: "Parallel Review", Active: true})
	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-analysis-branch",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-analysis",
		NextActivityID:    "act-branch",
		SerialNumber:      4,
		Active:            true,
	})
	ctx := context.Background()
	instance := createInstance(t, module)

	if _, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode:   "10100",
		AssignedUserID: "gh-1",
	}); err != nil {
		t.Fatalf("advance intake failed: %v", err)
	}
	advanced, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10200",
	})
	if err != nil {
		t.Fatalf("advance analysis failed: %v", err)
	}
	if len(advanced.Activated) != 2 {
		t.Fatalf("expected fan-out to two edges, got %d", len(advanced.Activated))
	}

	rolled, err := module.Handler.RollbackHandler(ctx, instance.InstanceID, "user-2", httptransport.RollbackRequest{
		ActivityCode: "10200",
		Remark:       "missing financials",
	})
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if len(rolled.Reactivated) != 1 || rolled.Reactivated[0].EdgeID != "edge-intake-analysis" {
		t.Fatalf("expected edge-intake-analysis revived, got %+v", rolled.Reactivated)
	}
	// Revived rows carry the original actors, not the roller.
	if rolled.Reactivated[0].PerformedBy != "gh-1" {
		t.Fatalf("expected revived performer gh-1, got %s", rolled.Reactivated[0].PerformedBy)
	}

	frontier, err := module.Handler.FrontierHandler(ctx, instance.InstanceID)
	if err != nil {
		t.Fatalf("frontier failed: %v", err)
	}
	if len(frontier.Items) != 1 || frontier.Items[0].EdgeID != "edge-intake-analysis" {
		t.Fatalf("expected frontier restored to edge-intake-analysis, got %+v", frontier.Items)
	}

	history, err := module.Handler.RollbackHistoryHandler(ctx, instance.InstanceID)
	if err != nil {
		t.Fatalf("rollback history failed: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].ActivityCode != "10200" {
		t.Fatalf("expected one rollback entry for 10200, got %+v", history.Items)
	}

	logs, err := module.Store.ListLogs(ctx, instance.InstanceID)
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	rollbackRows := 0
	for _, row := range logs {
		if row.Status == entities.LogStatusRollback {
			rollbackRows++
		}
	}
	if rollbackRows != 2 {
		t.Fatalf("expected both fan-out rows marked rollback, got %d", rollbackRows)
	}
}

func TestRollbackPastStartRejected(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	module.Store.SetActivity(entities.Activity{ActivityID: "act-zero", Code: "10000", Name: "Start", Active: true})
	instance := createInstance(t, module)

	_, err := module.Handler.RollbackHandler(context.Background(), instance.InstanceID, "user-1", httptransport.RollbackRequest{
		ActivityCode: "10000",
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestVotingGateBlocksUntilComplete(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	module.Store.SetActivity(entities.Activity{ActivityID: "act-voting", Code: "10550", Name: "Voting Completed", Active: true})
	module.Store.SetEdge(entities.Edge{
		EdgeID:            "edge-voting-out",
		RatingProcessID:   "proc-1",
		CurrentActivityID: "act-voting",
		NextActivityID:    "act-review",
		SerialNumber:      5,
		Active:            true,
	})
	module.Store.SetMandate(ports.Mandate{
		MandateID:       "mandate-1",
		CompanyID:       "company-1",
		Status:          "Sent to Committee",
		RatingAnalystID: "ra-1",
	})
	ctx := context.Background()
	instance := createInstance(t, module)

	_, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10550",
	})
	if !errors.Is(err, domainerrors.ErrVotingPending) {
		t.Fatalf("expected ErrVotingPending, got %v", err)
	}

	module.Store.SetVotingStatus("mandate-1", "Completed")
	resp, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode: "10550",
	})
	if err != nil {
		t.Fatalf("advance after voting failed: %v", err)
	}
	if len(resp.Activated) != 1 || resp.Activated[0].PerformedBy != "ra-1" {
		t.Fatalf("expected analyst performer after voting, got %+v", resp.Activated)
	}

	mandate, err := module.Store.GetMandate(ctx, "mandate-1")
	if err != nil {
		t.Fatalf("get mandate failed: %v", err)
	}
	if mandate.Status != "Voting Completed" {
		t.Fatalf("expected Voting Completed status, got %s", mandate.Status)
	}
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestAuditRelayPublishesPendingOnce(t *testing.T) {
	module := workflowengine.NewInMemoryModule(nil)
	seedLinearProcess(module)
	ctx := context.Background()
	instance := createInstance(t, module)
	if _, err := module.Handler.AdvanceHandler(ctx, instance.InstanceID, "user-1", httptransport.AdvanceRequest{
		ActivityCode:   "10100",
		AssignedUserID: "gh-1",
	}); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workflowworkers.AuditRelay{
		Audit:     module.Store,
		Publisher: publisher,
		BatchSize: 10,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.events) == 0 {
		t.Fatalf("expected audit events published")
	}
	published := len(publisher.events)

	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.events) != published {
		t.Fatalf("expected no re-publication, got %d then %d", published, len(publisher.events))
	}
}
