package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	"meridian/contexts/rating-operations/workflow-engine/ports"

	"github.com/google/uuid"
)

type logRecord struct {
	row entities.InstanceLog
	seq int
}

type auditRecord struct {
	message   ports.AuditMessage
	published bool
	seq       int
}

// Store is the in-memory workflow backend used by tests and local wiring.
// Atomic sections serialize on a dedicated mutex so read-decide-write
// sequences cannot interleave, matching the serializable-transaction
// contract of the postgres adapter.
type Store struct {
	mu       sync.RWMutex
	atomicMu sync.Mutex

	activities map[string]entities.Activity // by id
	byCode     map[string]string            // code -> id
	edges      map[string]entities.Edge
	instances  map[string]entities.Instance
	logs       map[string]logRecord
	logSeq     int
	rollbacks  map[string][]entities.RollbackEntry
	mandates   map[string]ports.Mandate
	details    map[string]ports.InstrumentDetail
	voting     map[string]string // mandate id -> voting status
	audit      map[string]auditRecord
	auditSeq   int
}

func NewStore() *Store {
	return &Store{
		activities: make(map[string]entities.Activity),
		byCode:     make(map[string]string),
		edges:      make(map[string]entities.Edge),
		instances:  make(map[string]entities.Instance),
		logs:       make(map[string]logRecord),
		rollbacks:  make(map[string][]entities.RollbackEntry),
		mandates:   make(map[string]ports.Mandate),
		details:    make(map[string]ports.InstrumentDetail),
		voting:     make(map[string]string),
		audit:      make(map[string]auditRecord),
	}
}

func (s *Store) SetActivity(activity entities.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[activity.ActivityID] = activity
	s.byCode[strings.TrimSpace(activity.Code)] = activity.ActivityID
}

func (s *Store) SetEdge(edge entities.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edge.EdgeID] = edge
}

func (s *Store) SetMandate(mandate ports.Mandate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mandates[strings.TrimSpace(mandate.MandateID)] = mandate
}

func (s *Store) SetInstrumentDetail(detail ports.InstrumentDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[strings.TrimSpace(detail.InstrumentDetailID)] = detail
}

func (s *Store) SetVotingStatus(mandateID string, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voting[strings.TrimSpace(mandateID)] = status
}

func (s *Store) GetActivityByCode(_ context.Context, code string) (entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, found := s.byCode[strings.TrimSpace(code)]
	if !found {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	activity := s.activities[id]
	if !activity.Active {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	return activity, nil
}

func (s *Store) GetActivity(_ context.Context, activityID string) (entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, found := s.activities[strings.TrimSpace(activityID)]
	if !found {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	return activity, nil
}

func (s *Store) ListOutgoingEdges(_ context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterEdges(func(edge entities.Edge) bool {
		return edge.RatingProcessID == strings.TrimSpace(ratingProcessID) &&
			edge.CurrentActivityID == strings.TrimSpace(activityID)
	}), nil
}

func (s *Store) ListIncomingEdges(_ context.Context, ratingProcessID string, activityID string) ([]entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterEdges(func(edge entities.Edge) bool {
		return edge.RatingProcessID == strings.TrimSpace(ratingProcessID) &&
			edge.NextActivityID == strings.TrimSpace(activityID)
	}), nil
}

func (s *Store) GetFirstEdge(_ context.Context, ratingProcessID string) (entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.filterEdges(func(edge entities.Edge) bool {
		return edge.RatingProcessID == strings.TrimSpace(ratingProcessID) && edge.SerialNumber == 1
	})
	if len(matches) == 0 {
		return entities.Edge{}, domainerrors.ErrEdgeNotFound
	}
	return matches[0], nil
}

func (s *Store) GetEdge(_ context.Context, edgeID string) (entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, found := s.edges[strings.TrimSpace(edgeID)]
	if !found {
		return entities.Edge{}, domainerrors.ErrEdgeNotFound
	}
	return edge, nil
}

func (s *Store) filterEdges(match func(entities.Edge) bool) []entities.Edge {
	var items []entities.Edge
	for _, edge := range s.edges {
		if edge.Active && match(edge) {
			items = append(items, edge)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SerialNumber == items[j].SerialNumber {
			return items[i].EdgeID < items[j].EdgeID
		}
		return items[i].SerialNumber < items[j].SerialNumber
	})
	return items
}

func (s *Store) CreateInstance(_ context.Context, instance entities.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[instance.InstanceID] = instance
	return nil
}

func (s *Store) GetInstance(_ context.Context, instanceID string) (entities.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instance, found := s.instances[strings.TrimSpace(instanceID)]
	if !found {
		return entities.Instance{}, domainerrors.ErrInstanceNotFound
	}
	return instance, nil
}

func (s *Store) FindActiveInstance(_ context.Context, mandateID string, ratingProcessID string, financialYearID string) (entities.Instance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, instance := range s.instances {
		if instance.Active &&
			instance.MandateID == strings.TrimSpace(mandateID) &&
			instance.RatingProcessID == strings.TrimSpace(ratingProcessID) &&
			instance.FinancialYearID == strings.TrimSpace(financialYearID) {
			return instance, true, nil
		}
	}
	return entities.Instance{}, false, nil
}

func (s *Store) ListActiveLogs(_ context.Context, instanceID string) ([]entities.InstanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLogs(strings.TrimSpace(instanceID), true), nil
}

func (s *Store) ListLogs(_ context.Context, instanceID string) ([]entities.InstanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLogs(strings.TrimSpace(instanceID), false), nil
}

func (s *Store) listLogs(instanceID string, activeOnly bool) []entities.InstanceLog {
	var records []logRecord
	for _, record := range s.logs {
		if record.row.InstanceID != instanceID {
			continue
		}
		if activeOnly && !record.row.Active {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})
	items := make([]entities.InstanceLog, 0, len(records))
	for _, record := range records {
		items = append(items, record.row)
	}
	return items
}

func (s *Store) SaveLog(_ context.Context, row entities.InstanceLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.logs[row.LogID]
	if found {
		existing.row = row
		s.logs[row.LogID] = existing
		return nil
	}
	s.logSeq++
	s.logs[row.LogID] = logRecord{row: row, seq: s.logSeq}
	return nil
}

func (s *Store) AppendRollbackEntry(_ context.Context, entry entities.RollbackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbacks[entry.InstanceID] = append(s.rollbacks[entry.InstanceID], entry)
	return nil
}

func (s *Store) ListRollbackEntries(_ context.Context, instanceID string) ([]entities.RollbackEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.RollbackEntry(nil), s.rollbacks[strings.TrimSpace(instanceID)]...), nil
}

func (s *Store) GetMandate(_ context.Context, mandateID string) (ports.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mandate, found := s.mandates[strings.TrimSpace(mandateID)]
	if !found {
		return ports.Mandate{}, domainerrors.ErrMandateNotFound
	}
	return mandate, nil
}

func (s *Store) UpdateMandate(_ context.Context, mandate ports.Mandate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.mandates[strings.TrimSpace(mandate.MandateID)]; !found {
		return domainerrors.ErrMandateNotFound
	}
	s.mandates[strings.TrimSpace(mandate.MandateID)] = mandate
	return nil
}

func (s *Store) GetInstrumentDetail(_ context.Context, instrumentDetailID string) (ports.InstrumentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	detail, found := s.details[strings.TrimSpace(instrumentDetailID)]
	if !found {
		return ports.InstrumentDetail{}, domainerrors.ErrInstrumentNotFound
	}
	return detail, nil
}

func (s *Store) UpdateInstrumentDetail(_ context.Context, detail ports.InstrumentDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.details[strings.TrimSpace(detail.InstrumentDetailID)]; !found {
		return domainerrors.ErrInstrumentNotFound
	}
	s.details[strings.TrimSpace(detail.InstrumentDetailID)] = detail
	return nil
}

func (s *Store) VotingStatus(_ context.Context, mandateID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, found := s.voting[strings.TrimSpace(mandateID)]
	return status, found, nil
}

func (s *Store) OpenVoting(_ context.Context, mandateID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voting[strings.TrimSpace(mandateID)] = "Upcoming"
	return nil
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	s.atomicMu.Lock()
	defer s.atomicMu.Unlock()
	return fn(ctx)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) AppendAudit(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.audit[envelope.EventID]; found {
		return nil
	}
	s.auditSeq++
	s.audit[envelope.EventID] = auditRecord{
		message: ports.AuditMessage{
			AuditID:      envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		seq: s.auditSeq,
	}
	return nil
}

func (s *Store) ListPendingAudit(_ context.Context, limit int) ([]ports.AuditMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []auditRecord
	for _, record := range s.audit {
		if !record.published {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})
	if len(records) > limit {
		records = records[:limit]
	}
	items := make([]ports.AuditMessage, 0, len(records))
	for _, record := range records {
		items = append(items, record.message)
	}
	return items, nil
}

func (s *Store) MarkAuditPublished(_ context.Context, auditID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.audit[strings.TrimSpace(auditID)]
	if !found {
		return domainerrors.ErrConcurrencyConflict
	}
	record.published = true
	s.audit[strings.TrimSpace(auditID)] = record
	return nil
}

var _ ports.WorkflowRepository = (*Store)(nil)
var _ ports.RegisterGateway = (*Store)(nil)
var _ ports.Atomic = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.AuditWriter = (*Store)(nil)
var _ ports.AuditRepository = (*Store)(nil)
