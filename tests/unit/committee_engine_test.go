package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	committeeengine "meridian/contexts/rating-operations/committee-engine"
	committeeerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	httptransport "meridian/contexts/rating-operations/committee-engine/transport/http"
	ratingscale "meridian/contexts/rating-operations/rating-scale"
)

// scaleBridge narrows the rating-scale classifier to the string contract the
// consensus engine expects.
type scaleBridge struct {
	scale ratingscale.Module
}

func (b scaleBridge) Classify(ctx context.Context, previousRating string, currentRating string) (string, error) {
	action, err := b.scale.Classifier.Classify(ctx, previousRating, currentRating)
	if err != nil {
		return "", err
	}
	return string(action), nil
}

func newCommitteeModule() committeeengine.Module {
	scale := ratingscale.NewInMemoryModule(nil)
	seedLongTermScale(scale)
	return committeeengine.NewInMemoryModule(scaleBridge{scale: scale}, nil)
}

func scheduleMeeting(t *testing.T, module committeeengine.Module, memberIDs []string) httptransport.MeetingResponse {
	t.Helper()
	meeting, err := module.Handler.ScheduleMeetingHandler(context.Background(), httptransport.ScheduleMeetingRequest{
		CommitteeTypeID: "ct-internal",
		CategoryID:      "cat-corporate",
		MeetingAt:       time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
		MemberIDs:       memberIDs,
	})
	if err != nil {
		t.Fatalf("schedule meeting failed: %v", err)
	}
	return meeting
}

func addCase(t *testing.T, module committeeengine.Module, meetingID string, previousRating string) httptransport.RegisterResponse {
	t.Helper()
	entry, err := module.Handler.AddCaseHandler(context.Background(), meetingID, httptransport.AddCaseRequest{
		MandateID:          "mandate-1",
		InstrumentDetailID: "inst-1",
		InstrumentText:     "NCD Series A",
		PreviousRating:     previousRating,
	})
	if err != nil {
		t.Fatalf("add case failed: %v", err)
	}
	return entry
}

func castBallot(t *testing.T, module committeeengine.Module, meetingID string, memberID string, rating string, outlook string) httptransport.CastBallotResponse {
	t.Helper()
	resp, err := module.Handler.CastBallotHandler(context.Background(), meetingID, "inst-1", httptransport.CastBallotRequest{
		MemberID: memberID,
		Rating:   rating,
		Outlook:  outlook,
	})
	if err != nil {
		t.Fatalf("cast ballot for %s failed: %v", memberID, err)
	}
	return resp
}

func TestScheduleMeetingEnforcesRoster(t *testing.T) {
	module := newCommitteeModule()

	_, err := module.Handler.ScheduleMeetingHandler(context.Background(), httptransport.ScheduleMeetingRequest{
		CommitteeTypeID: "ct-internal",
		MeetingAt:       time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
		MemberIDs:       []string{"chair", "m2"},
	})
	if !errors.Is(err, committeeerrors.ErrMinimumMembers) {
		t.Fatalf("expected ErrMinimumMembers for two members, got %v", err)
	}

	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3"})
	if meeting.Status != "Upcoming" {
		t.Fatalf("expected Upcoming, got %s", meeting.Status)
	}

	entry := addCase(t, module, meeting.MeetingID, "A")
	if entry.VotingStatus != "Upcoming" {
		t.Fatalf("expected register Upcoming, got %s", entry.VotingStatus)
	}
	_, err = module.Handler.AddCaseHandler(context.Background(), meeting.MeetingID, httptransport.AddCaseRequest{
		MandateID:          "mandate-1",
		InstrumentDetailID: "inst-1",
	})
	if !errors.Is(err, committeeerrors.ErrCaseExists) {
		t.Fatalf("expected ErrCaseExists, got %v", err)
	}
}

func TestOddRosterClosesOnWeightedMajority(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3", "m4", "m5"})
	addCase(t, module, meeting.MeetingID, "A")

	first := castBallot(t, module, meeting.MeetingID, "chair", "AA", "Stable")
	if first.Closed {
		t.Fatalf("single ballot must not close a five member roster")
	}
	if first.Register.VotingStatus != "Live" {
		t.Fatalf("expected Live after first ballot, got %s", first.Register.VotingStatus)
	}

	second := castBallot(t, module, meeting.MeetingID, "m2", "AA", "Stable")
	if second.Closed {
		t.Fatalf("2.1 of required 3.0 must not close, got %+v", second.Groups)
	}

	third := castBallot(t, module, meeting.MeetingID, "m3", "AA", "Stable")
	if !third.Closed {
		t.Fatalf("3.1 reaches the odd roster threshold of 3, got %+v", third.Groups)
	}
	if third.Rating != "AA" || third.RatingAction != "Upgraded" {
		t.Fatalf("expected AA Upgraded over previous A, got %s %s", third.Rating, third.RatingAction)
	}
	if third.Register.VotingStatus != "Completed" || third.Register.AssignedRating != "AA" {
		t.Fatalf("expected completed register with AA, got %+v", third.Register)
	}
}

func TestEvenRosterFullTurnoutBreaksDeadlock(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3", "m4"})
	addCase(t, module, meeting.MeetingID, "")

	castBallot(t, module, meeting.MeetingID, "m3", "A", "Stable")
	second := castBallot(t, module, meeting.MeetingID, "m4", "A", "Stable")
	// Even rosters need a strict majority: 2.0 of 4 does not clear 2.
	if second.Closed {
		t.Fatalf("bare half must not close an even roster, got %+v", second.Groups)
	}

	third := castBallot(t, module, meeting.MeetingID, "chair", "AA", "Positive")
	if third.Closed {
		t.Fatalf("trailing chairman ballot must not close, got %+v", third.Groups)
	}
	if third.Dissent {
		t.Fatalf("ballots stay provisional before closure, got a dissent mark")
	}

	fourth := castBallot(t, module, meeting.MeetingID, "m2", "AA", "Positive")
	if !fourth.Closed {
		t.Fatalf("full turnout forces closure, got %+v", fourth.Groups)
	}
	// Chairman weight tips AA to 2.1 over A at 2.0.
	if fourth.Rating != "AA" || fourth.Outlook != "Positive" {
		t.Fatalf("expected AA Positive consensus, got %s %s", fourth.Rating, fourth.Outlook)
	}
	if fourth.RatingAction != "Assigned" {
		t.Fatalf("expected Assigned without a previous rating, got %s", fourth.RatingAction)
	}

	summary, err := module.Handler.VotingSummaryHandler(context.Background(), meeting.MeetingID, "inst-1")
	if err != nil {
		t.Fatalf("voting summary failed: %v", err)
	}
	if !summary.Closed || len(summary.Dissenters) != 2 {
		t.Fatalf("expected two dissenters after closure, got %d", len(summary.Dissenters))
	}
	for _, dissenter := range summary.Dissenters {
		if dissenter.Rating != "A" {
			t.Fatalf("dissenters hold the losing rating, got %+v", dissenter)
		}
	}
}

func TestOpenInstrumentReportsNoDissenters(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3", "m4", "m5"})
	addCase(t, module, meeting.MeetingID, "A")

	castBallot(t, module, meeting.MeetingID, "chair", "AA", "Stable")
	split := castBallot(t, module, meeting.MeetingID, "m2", "A", "Stable")
	if split.Closed {
		t.Fatalf("split vote on a five member roster must not close, got %+v", split.Groups)
	}

	summary, err := module.Handler.VotingSummaryHandler(context.Background(), meeting.MeetingID, "inst-1")
	if err != nil {
		t.Fatalf("voting summary failed: %v", err)
	}
	if summary.Closed {
		t.Fatalf("expected open summary, got closed")
	}
	if len(summary.Dissenters) != 0 {
		t.Fatalf("open instrument must report no dissenters, got %d", len(summary.Dissenters))
	}
	for _, ballot := range summary.Ballots {
		if ballot.Dissent {
			t.Fatalf("ballot %s carries a dissent mark before closure", ballot.MemberID)
		}
	}
}

func TestRemoveMemberKeepsMinimumRoster(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3", "m4"})

	if err := module.Handler.RemoveMemberHandler(context.Background(), meeting.MeetingID, "ghost"); !errors.Is(err, committeeerrors.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if err := module.Handler.RemoveMemberHandler(context.Background(), meeting.MeetingID, "m4"); err != nil {
		t.Fatalf("remove at roster four failed: %v", err)
	}
	err := module.Handler.RemoveMemberHandler(context.Background(), meeting.MeetingID, "m3")
	if !errors.Is(err, committeeerrors.ErrMinimumMembers) {
		t.Fatalf("expected ErrMinimumMembers at roster three, got %v", err)
	}

	if err := module.Handler.AddMemberHandler(context.Background(), meeting.MeetingID, httptransport.MemberRequest{MemberID: "m5"}); err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if err := module.Handler.RemoveMemberHandler(context.Background(), meeting.MeetingID, "m3"); err != nil {
		t.Fatalf("remove after refill failed: %v", err)
	}
}

func TestRevoteOverturnsConsensus(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3"})
	addCase(t, module, meeting.MeetingID, "AA")

	castBallot(t, module, meeting.MeetingID, "chair", "AA", "Stable")
	closed := castBallot(t, module, meeting.MeetingID, "m2", "AA", "Stable")
	if !closed.Closed || closed.RatingAction != "Reaffirmed" {
		t.Fatalf("expected reaffirmed closure at 2.1 of 2, got %+v", closed)
	}

	// A revised ballot reopens the register when consensus no longer holds.
	reopened := castBallot(t, module, meeting.MeetingID, "m2", "A", "Stable")
	if reopened.Closed {
		t.Fatalf("revised ballot breaks the majority and must reopen")
	}
	if reopened.Register.VotingStatus != "Live" {
		t.Fatalf("expected register back to Live, got %s", reopened.Register.VotingStatus)
	}
	if reopened.Dissent {
		t.Fatalf("reopening clears dissent marks from the earlier closure")
	}

	final := castBallot(t, module, meeting.MeetingID, "m3", "A", "Stable")
	if !final.Closed {
		t.Fatalf("full turnout must close, got %+v", final.Groups)
	}
	if final.Rating != "A" || final.RatingAction != "Downgraded" {
		t.Fatalf("expected A Downgraded, got %s %s", final.Rating, final.RatingAction)
	}

	summary, err := module.Handler.VotingSummaryHandler(context.Background(), meeting.MeetingID, "inst-1")
	if err != nil {
		t.Fatalf("voting summary failed: %v", err)
	}
	if len(summary.Dissenters) != 1 || summary.Dissenters[0].MemberID != "chair" {
		t.Fatalf("expected the chairman as sole dissenter, got %+v", summary.Dissenters)
	}
}

func TestRejectsBallotFromNonMember(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3"})
	addCase(t, module, meeting.MeetingID, "A")

	_, err := module.Handler.CastBallotHandler(context.Background(), meeting.MeetingID, "inst-1", httptransport.CastBallotRequest{
		MemberID: "outsider",
		Rating:   "AA",
	})
	if !errors.Is(err, committeeerrors.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestGatewayTracksVotingLifecycle(t *testing.T) {
	module := newCommitteeModule()
	ctx := context.Background()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3"})
	addCase(t, module, meeting.MeetingID, "A")

	status, found, err := module.Gateway.VotingStatus(ctx, "mandate-1")
	if err != nil || !found || status != "Upcoming" {
		t.Fatalf("expected Upcoming after case registration, got %s %v %v", status, found, err)
	}

	castBallot(t, module, meeting.MeetingID, "chair", "AA", "Stable")
	status, found, err = module.Gateway.VotingStatus(ctx, "mandate-1")
	if err != nil || !found || status != "Live" {
		t.Fatalf("expected Live mid-vote, got %s %v %v", status, found, err)
	}

	castBallot(t, module, meeting.MeetingID, "m2", "AA", "Stable")
	status, found, err = module.Gateway.VotingStatus(ctx, "mandate-1")
	if err != nil || !found || status != "Completed" {
		t.Fatalf("expected Completed after closure, got %s %v %v", status, found, err)
	}

	_, found, err = module.Gateway.VotingStatus(ctx, "mandate-none")
	if err != nil || found {
		t.Fatalf("expected no register for unknown mandate, got %v %v", found, err)
	}
}

func TestConsensusClosureEmitsAuditEvent(t *testing.T) {
	module := newCommitteeModule()
	meeting := scheduleMeeting(t, module, []string{"chair", "m2", "m3"})
	addCase(t, module, meeting.MeetingID, "A")

	castBallot(t, module, meeting.MeetingID, "chair", "AA", "Stable")
	castBallot(t, module, meeting.MeetingID, "m2", "AA", "Stable")

	envelopes := module.Store.AuditEnvelopes()
	if len(envelopes) != 1 {
		t.Fatalf("expected one audit envelope on closure, got %d", len(envelopes))
	}
	if envelopes[0].EventType != "committee.consensus.reached" {
		t.Fatalf("unexpected event type %s", envelopes[0].EventType)
	}
	if envelopes[0].PartitionKey != "inst-1" {
		t.Fatalf("expected instrument partition key, got %s", envelopes[0].PartitionKey)
	}
}
