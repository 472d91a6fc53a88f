package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "meridian/contexts/rating-operations/workflow-engine/application"
	"meridian/contexts/rating-operations/workflow-engine/ports"
)

// AuditRelay publishes persisted audit records to the event bus.
type AuditRelay struct {
	Audit     ports.AuditRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending audit rows and marks each row
// published only after the bus accepts it. It stops on the first failure so
// the retry loop can reprocess remaining rows safely.
func (r AuditRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Audit.ListPendingAudit(ctx, limit)
	if err != nil {
		logger.Error("audit relay list failed",
			"event", "workflow_audit_relay_list_failed",
			"module", "rating-operations/workflow-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("audit relay decode failed",
				"event", "workflow_audit_relay_decode_failed",
				"module", "rating-operations/workflow-engine",
				"layer", "worker",
				"audit_id", row.AuditID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("audit relay publish failed",
				"event", "workflow_audit_relay_publish_failed",
				"module", "rating-operations/workflow-engine",
				"layer", "worker",
				"audit_id", row.AuditID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Audit.MarkAuditPublished(ctx, row.AuditID, now); err != nil {
			logger.Error("audit relay mark published failed",
				"event", "workflow_audit_relay_mark_failed",
				"module", "rating-operations/workflow-engine",
				"layer", "worker",
				"audit_id", row.AuditID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("audit relay cycle completed",
		"event", "workflow_audit_relay_completed",
		"module", "rating-operations/workflow-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
