package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"meridian/contexts/rating-operations/committee-engine/application"
	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	"meridian/contexts/rating-operations/committee-engine/ports"
)

// BallotUseCase records member votes and derives consensus. The whole
// cast-tally-publish sequence runs inside one transaction so concurrent
// ballots on the same instrument serialize.
type BallotUseCase struct {
	Repo       ports.CommitteeRepository
	Classifier ports.Classifier
	Atomic     ports.Atomic
	Audit      ports.AuditWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type CastBallotCommand struct {
	MeetingID          string
	InstrumentDetailID string
	MemberID           string
	Rating             string
	Outlook            string
	DissentRemark      string
}

// CastBallotResult reports the tally as of this ballot. Consensus carries a
// value only when Closed is true.
type CastBallotResult struct {
	Ballot    entities.Ballot
	Groups    []application.VoteGroup
	Closed    bool
	Consensus entities.ConsensusResult
	Register  entities.RegisterEntry
}

// CastBallot records or revises one member's vote, recomputes the weighted
// tally, and publishes the result to the meeting register when the closure
// rule is met. A later ballot that shifts the leading choice overwrites the
// earlier published consensus.
func (uc BallotUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.MeetingID) == "" ||
		strings.TrimSpace(cmd.InstrumentDetailID) == "" ||
		strings.TrimSpace(cmd.MemberID) == "" ||
		strings.TrimSpace(cmd.Rating) == "" {
		logger.Warn("ballot validation failed",
			"event", "committee_ballot_validation_failed",
			"module", "rating-operations/committee-engine",
			"layer", "application",
			"meeting_id", strings.TrimSpace(cmd.MeetingID),
			"member_id", strings.TrimSpace(cmd.MemberID),
		)
		return CastBallotResult{}, domainerrors.ErrInvalidCommitteeInput
	}
	meetingID := strings.TrimSpace(cmd.MeetingID)
	instrumentID := strings.TrimSpace(cmd.InstrumentDetailID)
	memberID := strings.TrimSpace(cmd.MemberID)

	var result CastBallotResult
	err := uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		if _, err := uc.Repo.GetMeeting(ctx, meetingID); err != nil {
			return err
		}
		member, found, err := uc.Repo.GetMember(ctx, meetingID, memberID)
		if err != nil {
			return err
		}
		if !found || !member.Active {
			return fmt.Errorf("%w: %s", domainerrors.ErrMemberNotFound, memberID)
		}
		register, err := uc.Repo.GetRegister(ctx, meetingID, instrumentID)
		if err != nil {
			return err
		}

		now := uc.Clock.Now()
		ballot, found, err := uc.Repo.GetBallotByIdentity(ctx, meetingID, instrumentID, memberID)
		if err != nil {
			return err
		}
		if !found {
			ballotID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			ballot = entities.Ballot{
				BallotID:           ballotID,
				InstrumentDetailID: instrumentID,
				MemberID:           memberID,
				MeetingID:          meetingID,
				CreatedAt:          now,
			}
		}
		ballot.Rating = strings.TrimSpace(cmd.Rating)
		ballot.Outlook = strings.TrimSpace(cmd.Outlook)
		ballot.Weightage = member.Weightage()
		ballot.Chairman = member.Chairman
		ballot.DissentRemark = strings.TrimSpace(cmd.DissentRemark)
		ballot.Active = true
		ballot.UpdatedAt = now
		if err := uc.Repo.SaveBallot(ctx, ballot); err != nil {
			return err
		}

		ballots, err := uc.Repo.ListBallots(ctx, meetingID, instrumentID)
		if err != nil {
			return err
		}
		roster, err := uc.Repo.ListActiveMembers(ctx, meetingID)
		if err != nil {
			return err
		}
		groups := application.Tally(ballots)
		if len(groups) == 0 {
			return fmt.Errorf("%w: tally produced no groups", domainerrors.ErrInvalidCommitteeInput)
		}
		leading := groups[0]
		closed := application.ClosureReached(len(roster), len(ballots), leading.Score)

		// Dissent is marked only at closure, against the winning rating;
		// outlook differences do not make a member a dissenter. Before
		// closure every ballot stays provisional, so a re-vote that reopens
		// the register also clears marks from the earlier closure.
		for i := range ballots {
			ballots[i].Dissent = closed && ballots[i].Rating != leading.Rating
			if err := uc.Repo.SaveBallot(ctx, ballots[i]); err != nil {
				return err
			}
			if ballots[i].MemberID == memberID {
				ballot = ballots[i]
			}
		}

		result = CastBallotResult{
			Ballot:   ballot,
			Groups:   groups,
			Closed:   closed,
			Register: register,
		}
		if !closed {
			if register.VotingStatus != entities.VotingStatusLive {
				register.VotingStatus = entities.VotingStatusLive
				register.UpdatedAt = now
				if err := uc.Repo.SaveRegister(ctx, register); err != nil {
					return err
				}
				result.Register = register
			}
			return nil
		}

		consensus, exists, err := uc.Repo.GetConsensus(ctx, instrumentID)
		if err != nil {
			return err
		}
		if !exists {
			resultID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			consensus = entities.ConsensusResult{
				ResultID:           resultID,
				InstrumentDetailID: instrumentID,
				CreatedAt:          now,
			}
		}
		consensus.MeetingID = meetingID
		consensus.Rating = leading.Rating
		consensus.Outlook = leading.Outlook
		consensus.Active = true
		consensus.UpdatedAt = now
		if err := uc.Repo.UpsertConsensus(ctx, consensus); err != nil {
			return err
		}

		action, err := uc.Classifier.Classify(ctx, register.PreviousRating, leading.Rating)
		if err != nil {
			return err
		}
		register.AssignedRating = leading.Rating
		register.AssignedOutlook = leading.Outlook
		register.RatingAction = action
		register.VotingStatus = entities.VotingStatusCompleted
		register.UpdatedAt = now
		if err := uc.Repo.SaveRegister(ctx, register); err != nil {
			return err
		}

		result.Consensus = consensus
		result.Register = register
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConcurrencyConflict) {
			logger.Warn("ballot serialization conflict",
				"event", "committee_ballot_conflict",
				"module", "rating-operations/committee-engine",
				"layer", "application",
				"meeting_id", meetingID,
				"instrument_detail_id", instrumentID,
			)
		}
		return CastBallotResult{}, err
	}

	if result.Closed {
		uc.appendAudit(ctx, "committee.consensus.reached", instrumentID, map[string]any{
			"meeting_id":           meetingID,
			"instrument_detail_id": instrumentID,
			"rating":               result.Consensus.Rating,
			"outlook":              result.Consensus.Outlook,
			"rating_action":        result.Register.RatingAction,
		})
	}
	logger.Info("committee ballot cast",
		"event", "committee_ballot_cast",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"instrument_detail_id", instrumentID,
		"member_id", memberID,
		"closed", result.Closed,
	)
	return result, nil
}

// appendAudit is fire and forget; a failed audit write never unwinds a
// published consensus.
func (uc BallotUseCase) appendAudit(ctx context.Context, eventType string, partitionKey string, data map[string]any) {
	if uc.Audit == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Warn("audit id generation failed",
			"event", "committee_audit_id_failed",
			"module", "rating-operations/committee-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("audit payload marshal failed",
			"event", "committee_audit_marshal_failed",
			"module", "rating-operations/committee-engine",
			"layer", "application",
			"event_type", eventType,
			"error", err.Error(),
		)
		return
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    uc.Clock.Now(),
		SourceService: "meridian",
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}
	if err := uc.Audit.AppendAudit(ctx, envelope); err != nil {
		logger.Warn("audit append failed",
			"event", "committee_audit_append_failed",
			"module", "rating-operations/committee-engine",
			"layer", "application",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
