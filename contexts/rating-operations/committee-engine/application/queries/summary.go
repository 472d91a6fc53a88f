package queries

import (
	"context"
	"log/slog"

	"meridian/contexts/rating-operations/committee-engine/application"
	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	"meridian/contexts/rating-operations/committee-engine/ports"
)

// SummaryUseCase serves read-side views over meetings and voting state.
type SummaryUseCase struct {
	Repo   ports.CommitteeRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// MeetingView is a meeting with its status derived from the clock.
type MeetingView struct {
	Meeting entities.Meeting
	Status  entities.MeetingStatus
}

// ListMeetings returns all meetings with clock-derived statuses.
func (uc SummaryUseCase) ListMeetings(ctx context.Context) ([]MeetingView, error) {
	meetings, err := uc.Repo.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.Clock.Now()
	views := make([]MeetingView, 0, len(meetings))
	for _, meeting := range meetings {
		views = append(views, MeetingView{
			Meeting: meeting,
			Status:  meeting.DerivedStatus(now),
		})
	}
	return views, nil
}

// VotingSummary is the state of one instrument's vote: the live tally, the
// published consensus if any, and the dissenting ballots.
type VotingSummary struct {
	Register   entities.RegisterEntry
	Groups     []application.VoteGroup
	Ballots    []entities.Ballot
	Dissenters []entities.Ballot
	Consensus  entities.ConsensusResult
	Closed     bool
}

// Summary assembles the tally and dissent partition for one instrument in
// one meeting.
func (uc SummaryUseCase) Summary(ctx context.Context, meetingID string, instrumentDetailID string) (VotingSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	register, err := uc.Repo.GetRegister(ctx, meetingID, instrumentDetailID)
	if err != nil {
		return VotingSummary{}, err
	}
	ballots, err := uc.Repo.ListBallots(ctx, meetingID, instrumentDetailID)
	if err != nil {
		return VotingSummary{}, err
	}
	groups := application.Tally(ballots)

	summary := VotingSummary{
		Register: register,
		Groups:   groups,
		Ballots:  ballots,
		Closed:   register.VotingStatus == entities.VotingStatusCompleted,
	}
	// Dissenters exist only once voting has closed; open tallies are
	// provisional and expose no dissent marks.
	if summary.Closed {
		for _, ballot := range ballots {
			if ballot.Dissent {
				summary.Dissenters = append(summary.Dissenters, ballot)
			}
		}
	}
	consensus, found, err := uc.Repo.GetConsensus(ctx, instrumentDetailID)
	if err != nil {
		return VotingSummary{}, err
	}
	if found {
		summary.Consensus = consensus
	}

	logger.Debug("voting summary assembled",
		"event", "committee_voting_summary",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"instrument_detail_id", instrumentDetailID,
		"ballot_count", len(ballots),
	)
	return summary, nil
}

// RegistersByMandate lists every register entry ever created for a mandate,
// across meetings.
func (uc SummaryUseCase) RegistersByMandate(ctx context.Context, mandateID string) ([]entities.RegisterEntry, error) {
	return uc.Repo.ListRegistersByMandate(ctx, mandateID)
}
