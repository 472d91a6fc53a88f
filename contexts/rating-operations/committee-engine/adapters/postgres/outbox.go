package postgresadapter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"meridian/contexts/rating-operations/committee-engine/ports"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

const auditStatusPending = "pending"

// AppendAudit writes the envelope to the shared audit outbox; the workflow
// relay drains it to the bus.
func (r *Repository) AppendAudit(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("committee_repo_append_audit_marshal_failed", err,
			"event_id", envelope.EventID,
		)
	}
	row := auditOutboxModel{
		AuditID:      strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       auditStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.AuditID == "" {
		row.AuditID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.handle(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audit_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("committee_repo_append_audit_failed", create.Error,
			"audit_id", row.AuditID,
		)
	}
	return nil
}

type auditOutboxModel struct {
	AuditID      string     `gorm:"column:audit_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (auditOutboxModel) TableName() string {
	return "audit_outbox"
}

var _ ports.AuditWriter = (*Repository)(nil)
