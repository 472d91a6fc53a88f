package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	"meridian/contexts/rating-operations/committee-engine/ports"

	"github.com/google/uuid"
)

type ballotRecord struct {
	row entities.Ballot
	seq int
}

type registerRecord struct {
	row entities.RegisterEntry
	seq int
}

// Store is the in-memory committee backend used by tests and local wiring.
// Atomic sections serialize on a dedicated mutex, matching the
// serializable-transaction contract of the postgres adapter.
type Store struct {
	mu       sync.RWMutex
	atomicMu sync.Mutex

	meetings    map[string]entities.Meeting
	members     map[string]map[string]entities.Member // meeting id -> member id
	ballots     map[string]ballotRecord               // meeting|instrument|member
	ballotSeq   int
	consensus   map[string]entities.ConsensusResult // by instrument detail id
	registers   map[string]registerRecord           // meeting|instrument
	registerSeq int
	audit       []ports.EventEnvelope
}

func NewStore() *Store {
	return &Store{
		meetings:  make(map[string]entities.Meeting),
		members:   make(map[string]map[string]entities.Member),
		ballots:   make(map[string]ballotRecord),
		consensus: make(map[string]entities.ConsensusResult),
		registers: make(map[string]registerRecord),
	}
}

func ballotKey(meetingID, instrumentDetailID, memberID string) string {
	return strings.TrimSpace(meetingID) + "|" + strings.TrimSpace(instrumentDetailID) + "|" + strings.TrimSpace(memberID)
}

func registerKey(meetingID, instrumentDetailID string) string {
	return strings.TrimSpace(meetingID) + "|" + strings.TrimSpace(instrumentDetailID)
}

// AuditEnvelopes returns the appended audit records in append order.
func (s *Store) AuditEnvelopes() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.EventEnvelope, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *Store) SaveMeeting(_ context.Context, meeting entities.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[strings.TrimSpace(meeting.MeetingID)] = meeting
	return nil
}

func (s *Store) GetMeeting(_ context.Context, meetingID string) (entities.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meeting, found := s.meetings[strings.TrimSpace(meetingID)]
	if !found || !meeting.Active {
		return entities.Meeting{}, domainerrors.ErrMeetingNotFound
	}
	return meeting, nil
}

func (s *Store) ListMeetings(_ context.Context) ([]entities.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Meeting, 0, len(s.meetings))
	for _, meeting := range s.meetings {
		if meeting.Active {
			out = append(out, meeting)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MeetingAt.Equal(out[j].MeetingAt) {
			return out[i].MeetingAt.Before(out[j].MeetingAt)
		}
		return out[i].MeetingID < out[j].MeetingID
	})
	return out, nil
}

func (s *Store) SaveMember(_ context.Context, member entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetingID := strings.TrimSpace(member.MeetingID)
	roster, found := s.members[meetingID]
	if !found {
		roster = make(map[string]entities.Member)
		s.members[meetingID] = roster
	}
	roster[strings.TrimSpace(member.MemberID)] = member
	return nil
}

func (s *Store) GetMember(_ context.Context, meetingID string, memberID string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster, found := s.members[strings.TrimSpace(meetingID)]
	if !found {
		return entities.Member{}, false, nil
	}
	member, found := roster[strings.TrimSpace(memberID)]
	return member, found, nil
}

func (s *Store) ListActiveMembers(_ context.Context, meetingID string) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := s.members[strings.TrimSpace(meetingID)]
	out := make([]entities.Member, 0, len(roster))
	for _, member := range roster {
		if member.Active {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (s *Store) SaveBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ballotKey(ballot.MeetingID, ballot.InstrumentDetailID, ballot.MemberID)
	record, found := s.ballots[key]
	if !found {
		s.ballotSeq++
		record.seq = s.ballotSeq
	}
	record.row = ballot
	s.ballots[key] = record
	return nil
}

func (s *Store) GetBallotByIdentity(_ context.Context, meetingID string, instrumentDetailID string, memberID string) (entities.Ballot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.ballots[ballotKey(meetingID, instrumentDetailID, memberID)]
	if !found {
		return entities.Ballot{}, false, nil
	}
	return record.row, true, nil
}

func (s *Store) ListBallots(_ context.Context, meetingID string, instrumentDetailID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type ordered struct {
		row entities.Ballot
		seq int
	}
	var rows []ordered
	meetingID = strings.TrimSpace(meetingID)
	instrumentDetailID = strings.TrimSpace(instrumentDetailID)
	for _, record := range s.ballots {
		if record.row.MeetingID != meetingID || record.row.InstrumentDetailID != instrumentDetailID {
			continue
		}
		if !record.row.Active {
			continue
		}
		rows = append(rows, ordered{row: record.row, seq: record.seq})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]entities.Ballot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.row)
	}
	return out, nil
}

func (s *Store) UpsertConsensus(_ context.Context, result entities.ConsensusResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consensus[strings.TrimSpace(result.InstrumentDetailID)] = result
	return nil
}

func (s *Store) GetConsensus(_ context.Context, instrumentDetailID string) (entities.ConsensusResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, found := s.consensus[strings.TrimSpace(instrumentDetailID)]
	if !found || !result.Active {
		return entities.ConsensusResult{}, false, nil
	}
	return result, true, nil
}

func (s *Store) SaveRegister(_ context.Context, entry entities.RegisterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := registerKey(entry.MeetingID, entry.InstrumentDetailID)
	record, found := s.registers[key]
	if !found {
		s.registerSeq++
		record.seq = s.registerSeq
	}
	record.row = entry
	s.registers[key] = record
	return nil
}

func (s *Store) GetRegister(_ context.Context, meetingID string, instrumentDetailID string) (entities.RegisterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.registers[registerKey(meetingID, instrumentDetailID)]
	if !found || !record.row.Active {
		return entities.RegisterEntry{}, domainerrors.ErrRegisterNotFound
	}
	return record.row, nil
}

func (s *Store) ListRegistersByMandate(_ context.Context, mandateID string) ([]entities.RegisterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mandateID = strings.TrimSpace(mandateID)
	type ordered struct {
		row entities.RegisterEntry
		seq int
	}
	var rows []ordered
	for _, record := range s.registers {
		if record.row.MandateID == mandateID {
			rows = append(rows, ordered{row: record.row, seq: record.seq})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]entities.RegisterEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.row)
	}
	return out, nil
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
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, envelope)
	return nil
}

var _ ports.CommitteeRepository = (*Store)(nil)
var _ ports.Atomic = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.AuditWriter = (*Store)(nil)
