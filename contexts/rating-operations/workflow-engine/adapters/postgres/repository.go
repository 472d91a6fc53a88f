package postgresadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	"meridian/contexts/rating-operations/workflow-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	auditStatusPending   = "pending"
	auditStatusPublished = "published"
)

type txKey struct{}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Atomic runs fn inside one serializable transaction. The handle rides the
// context so repository calls made from fn join the same transaction.
// Serialization failures surface as ErrConcurrencyConflict so callers can
// retry the whole operation.
func (r *Repository) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if isSerializationFailure(err) || isUniqueViolation(err) {
		return domainerrors.ErrConcurrencyConflict
	}
	return err
}

func (r *Repository) handle(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) GetActivityByCode(ctx context.Context, code string) (entities.Activity, error) {
	var row activityModel
	err := r.handle(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Activity{}, domainerrors.ErrActivityNotFound
		}
		return entities.Activity{}, r.logError("workflow_repo_get_activity_by_code_failed", err,
			"code", strings.TrimSpace(code),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActivity(ctx context.Context, activityID string) (entities.Activity, error) {
	var row activityModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(activityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Activity{}, domainerrors.ErrActivityNotFound
		}
		return entities.Activity{}, r.logError("workflow_repo_get_activity_failed", err,
			"activity_id", strings.TrimSpace(activityID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOutgoingEdges(ctx context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error) {
	return r.listEdges(ctx, "current_activity_id", ratingProcessID, activityID, "workflow_repo_list_outgoing_edges_failed")
}

func (r *Repository) ListIncomingEdges(ctx context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error) {
	return r.listEdges(ctx, "next_activity_id", ratingProcessID, activityID, "workflow_repo_list_incoming_edges_failed")
}

func (r *Repository) listEdges(ctx context.Context, column string, ratingProcessID string, activityID string, failEvent string) ([]entities.Edge, error) {
	var rows []workflowConfigModel
	err := r.handle(ctx).
		Where("rating_process_id = ?", strings.TrimSpace(ratingProcessID)).
		Where(column+" = ?", strings.TrimSpace(activityID)).
		Where("is_active = ?", true).
		Order("serial_number ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError(failEvent, err,
			"rating_process_id", strings.TrimSpace(ratingProcessID),
			"activity_id", strings.TrimSpace(activityID),
		)
	}
	items := make([]entities.Edge, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetFirstEdge(ctx context.Context, ratingProcessID string) (entities.Edge, error) {
	var row workflowConfigModel
	err := r.handle(ctx).
		Where("rating_process_id = ?", strings.TrimSpace(ratingProcessID)).
		Where("serial_number = ?", 1).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Edge{}, domainerrors.ErrEdgeNotFound
		}
		return entities.Edge{}, r.logError("workflow_repo_get_first_edge_failed", err,
			"rating_process_id", strings.TrimSpace(ratingProcessID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetEdge(ctx context.Context, edgeID string) (entities.Edge, error) {
	var row workflowConfigModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(edgeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Edge{}, domainerrors.ErrEdgeNotFound
		}
		return entities.Edge{}, r.logError("workflow_repo_get_edge_failed", err,
			"edge_id", strings.TrimSpace(edgeID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateInstance(ctx context.Context, instance entities.Instance) error {
	row := instanceModelFromEntity(instance)
	if err := r.handle(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInstanceExists
		}
		return r.logError("workflow_repo_create_instance_failed", err,
			"instance_id", instance.InstanceID,
			"mandate_id", instance.MandateID,
		)
	}
	return nil
}

func (r *Repository) GetInstance(ctx context.Context, instanceID string) (entities.Instance, error) {
	var row workflowInstanceModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(instanceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Instance{}, domainerrors.ErrInstanceNotFound
		}
		return entities.Instance{}, r.logError("workflow_repo_get_instance_failed", err,
			"instance_id", strings.TrimSpace(instanceID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindActiveInstance(ctx context.Context, mandateID string, ratingProcessID string, financialYearID string) (entities.Instance, bool, error) {
	var row workflowInstanceModel
	err := r.handle(ctx).
		Where("mandate_id = ?", strings.TrimSpace(mandateID)).
		Where("rating_process_id = ?", strings.TrimSpace(ratingProcessID)).
		Where("financial_year_id = ?", strings.TrimSpace(financialYearID)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Instance{}, false, nil
		}
		return entities.Instance{}, false, r.logError("workflow_repo_find_active_instance_failed", err,
			"mandate_id", strings.TrimSpace(mandateID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListActiveLogs(ctx context.Context, instanceID string) ([]entities.InstanceLog, error) {
	return r.listLogs(ctx, instanceID, true)
}

func (r *Repository) ListLogs(ctx context.Context, instanceID string) ([]entities.InstanceLog, error) {
	return r.listLogs(ctx, instanceID, false)
}

func (r *Repository) listLogs(ctx context.Context, instanceID string, activeOnly bool) ([]entities.InstanceLog, error) {
	tx := r.handle(ctx).Model(&workflowInstanceLogModel{}).
		Where("workflow_instance_id = ?", strings.TrimSpace(instanceID))
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var rows []workflowInstanceLogModel
	if err := tx.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("workflow_repo_list_logs_failed", err,
			"instance_id", strings.TrimSpace(instanceID),
			"active_only", activeOnly,
		)
	}
	items := make([]entities.InstanceLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveLog(ctx context.Context, log entities.InstanceLog) error {
	row := logModelFromEntity(log)
	create := r.handle(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     row.Status,
			"is_active":  row.IsActive,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("workflow_repo_save_log_failed", create.Error,
			"log_id", log.LogID,
			"instance_id", log.InstanceID,
		)
	}
	return nil
}

func (r *Repository) AppendRollbackEntry(ctx context.Context, entry entities.RollbackEntry) error {
	row := rollbackModelFromEntity(entry)
	if err := r.handle(ctx).Create(&row).Error; err != nil {
		return r.logError("workflow_repo_append_rollback_failed", err,
			"rollback_id", entry.RollbackID,
			"instance_id", entry.InstanceID,
		)
	}
	return nil
}

func (r *Repository) ListRollbackEntries(ctx context.Context, instanceID string) ([]entities.RollbackEntry, error) {
	var rows []workflowRollbackModel
	if err := r.handle(ctx).
		Where("workflow_instance_id = ?", strings.TrimSpace(instanceID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("workflow_repo_list_rollbacks_failed", err,
			"instance_id", strings.TrimSpace(instanceID),
		)
	}
	items := make([]entities.RollbackEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetMandate(ctx context.Context, mandateID string) (ports.Mandate, error) {
	var row mandateModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(mandateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Mandate{}, domainerrors.ErrMandateNotFound
		}
		return ports.Mandate{}, r.logError("workflow_repo_get_mandate_failed", err,
			"mandate_id", strings.TrimSpace(mandateID),
		)
	}
	return row.toProjection(), nil
}

func (r *Repository) UpdateMandate(ctx context.Context, mandate ports.Mandate) error {
	result := r.handle(ctx).
		Model(&mandateModel{}).
		Where("id = ?", strings.TrimSpace(mandate.MandateID)).
		Updates(map[string]any{
			"status": mandate.Status,
			"gh_id":  nullableString(mandate.GroupHeadID),
			"ra_id":  nullableString(mandate.RatingAnalystID),
		})
	if result.Error != nil {
		return r.logError("workflow_repo_update_mandate_failed", result.Error,
			"mandate_id", strings.TrimSpace(mandate.MandateID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMandateNotFound
	}
	return nil
}

func (r *Repository) GetInstrumentDetail(ctx context.Context, instrumentDetailID string) (ports.InstrumentDetail, error) {
	var row instrumentDetailModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(instrumentDetailID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.InstrumentDetail{}, domainerrors.ErrInstrumentNotFound
		}
		return ports.InstrumentDetail{}, r.logError("workflow_repo_get_instrument_failed", err,
			"instrument_detail_id", strings.TrimSpace(instrumentDetailID),
		)
	}
	return row.toProjection(), nil
}

func (r *Repository) UpdateInstrumentDetail(ctx context.Context, detail ports.InstrumentDetail) error {
	result := r.handle(ctx).
		Model(&instrumentDetailModel{}).
		Where("id = ?", strings.TrimSpace(detail.InstrumentDetailID)).
		Updates(map[string]any{
			"acceptance_date":    detail.AcceptanceDate,
			"press_release_date": detail.PressReleaseDate,
			"rating_letter_date": detail.RatingLetterDate,
			"is_active":          detail.Active,
		})
	if result.Error != nil {
		return r.logError("workflow_repo_update_instrument_failed", result.Error,
			"instrument_detail_id", strings.TrimSpace(detail.InstrumentDetailID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInstrumentNotFound
	}
	return nil
}

func (r *Repository) AppendAudit(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("workflow_repo_append_audit_marshal_failed", err,
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
		return r.logError("workflow_repo_append_audit_failed", create.Error,
			"audit_id", row.AuditID,
		)
	}
	return nil
}

func (r *Repository) ListPendingAudit(ctx context.Context, limit int) ([]ports.AuditMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []auditOutboxModel
	if err := r.handle(ctx).
		Where("status = ?", auditStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("workflow_repo_list_pending_audit_failed", err, "limit", limit)
	}
	items := make([]ports.AuditMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AuditMessage{
			AuditID:      row.AuditID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkAuditPublished(ctx context.Context, auditID string, publishedAt time.Time) error {
	result := r.handle(ctx).
		Model(&auditOutboxModel{}).
		Where("audit_id = ?", strings.TrimSpace(auditID)).
		Updates(map[string]any{
			"status":       auditStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("workflow_repo_mark_audit_published_failed", result.Error,
			"audit_id", strings.TrimSpace(auditID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrencyConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "rating-operations/workflow-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("workflow repository operation failed", fields...)
	return err
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies the IDGenerator port with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type activityModel struct {
	ID               string `gorm:"column:id;primaryKey"`
	Code             string `gorm:"column:code"`
	Name             string `gorm:"column:name"`
	CompletionStatus string `gorm:"column:completion_status"`
	IsActive         bool   `gorm:"column:is_active"`
}

func (activityModel) TableName() string {
	return "activities"
}

func (m activityModel) toEntity() entities.Activity {
	return entities.Activity{
		ActivityID:       m.ID,
		Code:             m.Code,
		Name:             m.Name,
		CompletionStatus: m.CompletionStatus,
		Active:           m.IsActive,
	}
}

type workflowConfigModel struct {
	ID                string `gorm:"column:id;primaryKey"`
	RatingProcessID   string `gorm:"column:rating_process_id"`
	CurrentActivityID string `gorm:"column:current_activity_id"`
	NextActivityID    string `gorm:"column:next_activity_id"`
	AssignerRoleID    string `gorm:"column:assigner_role_id"`
	PerformerRoleID   string `gorm:"column:performer_role_id"`
	SerialNumber      int    `gorm:"column:serial_number"`
	TATDays           int    `gorm:"column:tat"`
	IsLastActivity    bool   `gorm:"column:is_last_activity"`
	IsActive          bool   `gorm:"column:is_active"`
}

func (workflowConfigModel) TableName() string {
	return "workflow_configs"
}

func (m workflowConfigModel) toEntity() entities.Edge {
	return entities.Edge{
		EdgeID:            m.ID,
		RatingProcessID:   m.RatingProcessID,
		CurrentActivityID: m.CurrentActivityID,
		NextActivityID:    m.NextActivityID,
		AssignerRoleID:    m.AssignerRoleID,
		PerformerRoleID:   m.PerformerRoleID,
		SerialNumber:      m.SerialNumber,
		TATDays:           m.TATDays,
		LastActivity:      m.IsLastActivity,
		Active:            m.IsActive,
	}
}

type workflowInstanceModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	MandateID       string    `gorm:"column:mandate_id"`
	CompanyID       string    `gorm:"column:company_id"`
	FinancialYearID string    `gorm:"column:financial_year_id"`
	RatingProcessID string    `gorm:"column:rating_process_id"`
	IsActive        bool      `gorm:"column:is_active"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (workflowInstanceModel) TableName() string {
	return "workflow_instances"
}

func instanceModelFromEntity(instance entities.Instance) workflowInstanceModel {
	return workflowInstanceModel{
		ID:              strings.TrimSpace(instance.InstanceID),
		MandateID:       strings.TrimSpace(instance.MandateID),
		CompanyID:       strings.TrimSpace(instance.CompanyID),
		FinancialYearID: strings.TrimSpace(instance.FinancialYearID),
		RatingProcessID: strings.TrimSpace(instance.RatingProcessID),
		IsActive:        instance.Active,
		CreatedAt:       instance.CreatedAt.UTC(),
		UpdatedAt:       instance.UpdatedAt.UTC(),
	}
}

func (m workflowInstanceModel) toEntity() entities.Instance {
	return entities.Instance{
		InstanceID:      m.ID,
		MandateID:       m.MandateID,
		CompanyID:       m.CompanyID,
		FinancialYearID: m.FinancialYearID,
		RatingProcessID: m.RatingProcessID,
		Active:          m.IsActive,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type workflowInstanceLogModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	WorkflowInstanceID string    `gorm:"column:workflow_instance_id"`
	WorkflowConfigID   string    `gorm:"column:workflow_config_id"`
	Status             string    `gorm:"column:status"`
	IsActive           bool      `gorm:"column:is_active"`
	AssignedBy         string    `gorm:"column:assigned_by"`
	PerformedBy        string    `gorm:"column:performed_by"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (workflowInstanceLogModel) TableName() string {
	return "workflow_instance_logs"
}

func logModelFromEntity(log entities.InstanceLog) workflowInstanceLogModel {
	return workflowInstanceLogModel{
		ID:                 strings.TrimSpace(log.LogID),
		WorkflowInstanceID: strings.TrimSpace(log.InstanceID),
		WorkflowConfigID:   strings.TrimSpace(log.EdgeID),
		Status:             log.Status,
		IsActive:           log.Active,
		AssignedBy:         strings.TrimSpace(log.AssignedBy),
		PerformedBy:        strings.TrimSpace(log.PerformedBy),
		CreatedAt:          log.CreatedAt.UTC(),
		UpdatedAt:          log.UpdatedAt.UTC(),
	}
}

func (m workflowInstanceLogModel) toEntity() entities.InstanceLog {
	return entities.InstanceLog{
		LogID:       m.ID,
		InstanceID:  m.WorkflowInstanceID,
		EdgeID:      m.WorkflowConfigID,
		Status:      m.Status,
		Active:      m.IsActive,
		AssignedBy:  m.AssignedBy,
		PerformedBy: m.PerformedBy,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type workflowRollbackModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	WorkflowInstanceID string    `gorm:"column:workflow_instance_id"`
	ActivityCode       string    `gorm:"column:activity_code"`
	Remark             string    `gorm:"column:remark"`
	CreatedBy          string    `gorm:"column:created_by"`
	CreatedAt          time.Time `gorm:"column:created_at"`
}

func (workflowRollbackModel) TableName() string {
	return "workflow_rollback_logs"
}

func rollbackModelFromEntity(entry entities.RollbackEntry) workflowRollbackModel {
	return workflowRollbackModel{
		ID:                 strings.TrimSpace(entry.RollbackID),
		WorkflowInstanceID: strings.TrimSpace(entry.InstanceID),
		ActivityCode:       strings.TrimSpace(entry.ActivityCode),
		Remark:             strings.TrimSpace(entry.Remark),
		CreatedBy:          strings.TrimSpace(entry.CreatedBy),
		CreatedAt:          entry.CreatedAt.UTC(),
	}
}

func (m workflowRollbackModel) toEntity() entities.RollbackEntry {
	return entities.RollbackEntry{
		RollbackID:   m.ID,
		InstanceID:   m.WorkflowInstanceID,
		ActivityCode: m.ActivityCode,
		Remark:       m.Remark,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type mandateModel struct {
	ID              string  `gorm:"column:id;primaryKey"`
	CompanyID       string  `gorm:"column:company_id"`
	Status          string  `gorm:"column:status"`
	GroupHeadID     *string `gorm:"column:gh_id"`
	RatingAnalystID *string `gorm:"column:ra_id"`
}

func (mandateModel) TableName() string {
	return "mandates"
}

func (m mandateModel) toProjection() ports.Mandate {
	return ports.Mandate{
		MandateID:       m.ID,
		CompanyID:       m.CompanyID,
		Status:          m.Status,
		GroupHeadID:     derefString(m.GroupHeadID),
		RatingAnalystID: derefString(m.RatingAnalystID),
	}
}

type instrumentDetailModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	MandateID        string     `gorm:"column:mandate_id"`
	RatingProcessID  string     `gorm:"column:rating_process_id"`
	AcceptanceDate   *time.Time `gorm:"column:acceptance_date"`
	PressReleaseDate *time.Time `gorm:"column:press_release_date"`
	RatingLetterDate *time.Time `gorm:"column:rating_letter_date"`
	IsActive         bool       `gorm:"column:is_active"`
}

func (instrumentDetailModel) TableName() string {
	return "instrument_details"
}

func (m instrumentDetailModel) toProjection() ports.InstrumentDetail {
	return ports.InstrumentDetail{
		InstrumentDetailID: m.ID,
		MandateID:          m.MandateID,
		RatingProcessID:    m.RatingProcessID,
		AcceptanceDate:     m.AcceptanceDate,
		PressReleaseDate:   m.PressReleaseDate,
		RatingLetterDate:   m.RatingLetterDate,
		Active:             m.IsActive,
	}
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

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

var _ ports.WorkflowRepository = (*Repository)(nil)
var _ ports.Atomic = (*Repository)(nil)
var _ ports.AuditWriter = (*Repository)(nil)
var _ ports.AuditRepository = (*Repository)(nil)
