package ports

import (
	"context"
	"time"

	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	contractsv1 "meridian/contracts/gen/events/v1"
)

// Mandate is the projection of the mandate record the engine reads and
// mutates through side effects. GroupHeadID and RatingAnalystID back the
// role-occupant performer strategies.
type Mandate struct {
	MandateID       string
	CompanyID       string
	Status          string
	GroupHeadID     string
	RatingAnalystID string
}

// InstrumentDetail is the projection of the instrument record side effects
// stamp dates onto.
type InstrumentDetail struct {
	InstrumentDetailID string
	MandateID          string
	RatingProcessID    string
	AcceptanceDate     *time.Time
	PressReleaseDate   *time.Time
	RatingLetterDate   *time.Time
	Active             bool
}

type WorkflowRepository interface {
	GetActivityByCode(ctx context.Context, code string) (entities.Activity, error)
	GetActivity(ctx context.Context, activityID string) (entities.Activity, error)
	// ListOutgoingEdges returns the active edges leading out of an activity,
	// restricted to one rating process. Empty is not an error.
	ListOutgoingEdges(ctx context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error)
	// ListIncomingEdges returns the active edges whose next activity is the
	// given one, restricted to one rating process.
	ListIncomingEdges(ctx context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error)
	// GetFirstEdge returns the serial-number-1 edge of a rating process.
	GetFirstEdge(ctx context.Context, ratingProcessID string) (entities.Edge, error)
	GetEdge(ctx context.Context, edgeID string) (entities.Edge, error)

	CreateInstance(ctx context.Context, instance entities.Instance) error
	GetInstance(ctx context.Context, instanceID string) (entities.Instance, error)
	FindActiveInstance(ctx context.Context, mandateID string, ratingProcessID string, financialYearID string) (entities.Instance, bool, error)

	ListActiveLogs(ctx context.Context, instanceID string) ([]entities.InstanceLog, error)
	ListLogs(ctx context.Context, instanceID string) ([]entities.InstanceLog, error)
	SaveLog(ctx context.Context, log entities.InstanceLog) error
	AppendRollbackEntry(ctx context.Context, entry entities.RollbackEntry) error
	ListRollbackEntries(ctx context.Context, instanceID string) ([]entities.RollbackEntry, error)

	GetMandate(ctx context.Context, mandateID string) (Mandate, error)
	UpdateMandate(ctx context.Context, mandate Mandate) error
	GetInstrumentDetail(ctx context.Context, instrumentDetailID string) (InstrumentDetail, error)
	UpdateInstrumentDetail(ctx context.Context, detail InstrumentDetail) error
}

// RegisterGateway bridges the committee register back into the workflow:
// the voting activity codes read its aggregate voting status, and the
// sent-to-committee code opens voting.
type RegisterGateway interface {
	VotingStatus(ctx context.Context, mandateID string) (string, bool, error)
	OpenVoting(ctx context.Context, mandateID string, openedAt time.Time) error
}

// Atomic runs fn as one transaction. Frontier deactivation and successor
// activation are logically a single write; interleaved read-decide-write
// sequences must serialize here.
type Atomic interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

// AuditWriter appends an audit record. Callers treat failures as
// fire-and-forget: a failed append never rolls back the core operation.
type AuditWriter interface {
	AppendAudit(ctx context.Context, envelope EventEnvelope) error
}

type AuditMessage struct {
	AuditID      string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// AuditRepository is the relay-side view of the audit outbox.
type AuditRepository interface {
	ListPendingAudit(ctx context.Context, limit int) ([]AuditMessage, error)
	MarkAuditPublished(ctx context.Context, auditID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
