package ports

import (
	"context"
	"time"

	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	contractsv1 "meridian/contracts/gen/events/v1"
)

type CommitteeRepository interface {
	SaveMeeting(ctx context.Context, meeting entities.Meeting) error
	GetMeeting(ctx context.Context, meetingID string) (entities.Meeting, error)
	ListMeetings(ctx context.Context) ([]entities.Meeting, error)

	SaveMember(ctx context.Context, member entities.Member) error
	GetMember(ctx context.Context, meetingID string, memberID string) (entities.Member, bool, error)
	ListActiveMembers(ctx context.Context, meetingID string) ([]entities.Member, error)

	SaveBallot(ctx context.Context, ballot entities.Ballot) error
	GetBallotByIdentity(ctx context.Context, meetingID string, instrumentDetailID string, memberID string) (entities.Ballot, bool, error)
	// ListBallots returns the active ballots for one instrument in one
	// meeting, oldest first.
	ListBallots(ctx context.Context, meetingID string, instrumentDetailID string) ([]entities.Ballot, error)

	// UpsertConsensus keeps at most one active result row per instrument.
	UpsertConsensus(ctx context.Context, result entities.ConsensusResult) error
	GetConsensus(ctx context.Context, instrumentDetailID string) (entities.ConsensusResult, bool, error)

	SaveRegister(ctx context.Context, entry entities.RegisterEntry) error
	GetRegister(ctx context.Context, meetingID string, instrumentDetailID string) (entities.RegisterEntry, error)
	ListRegistersByMandate(ctx context.Context, mandateID string) ([]entities.RegisterEntry, error)
}

// Classifier is the rating-scale comparison the consensus engine publishes
// through. Implemented outside this module; wired at composition time.
type Classifier interface {
	Classify(ctx context.Context, previousRating string, currentRating string) (string, error)
}

// Atomic runs fn as one transaction. Two concurrent ballots on the same
// instrument must not both observe a pre-closure tally and decide closure
// with different winners.
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

// AuditWriter appends an audit record; failures never roll back the core
// operation.
type AuditWriter interface {
	AppendAudit(ctx context.Context, envelope EventEnvelope) error
}
