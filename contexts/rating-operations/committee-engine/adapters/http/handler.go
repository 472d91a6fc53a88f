package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/rating-operations/committee-engine/application"
	"meridian/contexts/rating-operations/committee-engine/application/commands"
	"meridian/contexts/rating-operations/committee-engine/application/queries"
	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	httptransport "meridian/contexts/rating-operations/committee-engine/transport/http"
)

type Handler struct {
	Meetings commands.MeetingUseCase
	Ballots  commands.BallotUseCase
	Summary  queries.SummaryUseCase
	Logger   *slog.Logger
}

func (h Handler) ScheduleMeetingHandler(ctx context.Context, req httptransport.ScheduleMeetingRequest) (httptransport.MeetingResponse, error) {
	meetingAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.MeetingAt))
	if err != nil {
		return httptransport.MeetingResponse{}, domainerrors.ErrInvalidCommitteeInput
	}
	meeting, err := h.Meetings.ScheduleMeeting(ctx, commands.ScheduleMeetingInput{
		CommitteeTypeID: req.CommitteeTypeID,
		CategoryID:      req.CategoryID,
		MeetingAt:       meetingAt.UTC(),
		MemberIDs:       req.MemberIDs,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting, meeting.Status), nil
}

func (h Handler) ListMeetingsHandler(ctx context.Context) (httptransport.MeetingListResponse, error) {
	views, err := h.Summary.ListMeetings(ctx)
	if err != nil {
		return httptransport.MeetingListResponse{}, err
	}
	resp := httptransport.MeetingListResponse{
		Items: make([]httptransport.MeetingResponse, 0, len(views)),
	}
	for _, view := range views {
		resp.Items = append(resp.Items, meetingResponse(view.Meeting, view.Status))
	}
	return resp, nil
}

func (h Handler) AddMemberHandler(ctx context.Context, meetingID string, req httptransport.MemberRequest) error {
	return h.Meetings.AddMember(ctx, meetingID, req.MemberID, req.Chairman)
}

func (h Handler) RemoveMemberHandler(ctx context.Context, meetingID string, memberID string) error {
	return h.Meetings.RemoveMember(ctx, meetingID, memberID)
}

func (h Handler) AddCaseHandler(ctx context.Context, meetingID string, req httptransport.AddCaseRequest) (httptransport.RegisterResponse, error) {
	entry, err := h.Meetings.AddCase(ctx, commands.AddCaseInput{
		MeetingID:          meetingID,
		MandateID:          req.MandateID,
		InstrumentDetailID: req.InstrumentDetailID,
		InstrumentText:     req.InstrumentText,
		PreviousRating:     req.PreviousRating,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return registerResponse(entry), nil
}

func (h Handler) CastBallotHandler(ctx context.Context, meetingID string, instrumentDetailID string, req httptransport.CastBallotRequest) (httptransport.CastBallotResponse, error) {
	result, err := h.Ballots.CastBallot(ctx, commands.CastBallotCommand{
		MeetingID:          meetingID,
		InstrumentDetailID: instrumentDetailID,
		MemberID:           req.MemberID,
		Rating:             req.Rating,
		Outlook:            req.Outlook,
		DissentRemark:      req.DissentRemark,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	resp := httptransport.CastBallotResponse{
		BallotID: result.Ballot.BallotID,
		Dissent:  result.Ballot.Dissent,
		Closed:   result.Closed,
		Groups:   voteGroupItems(result.Groups),
		Register: registerResponse(result.Register),
	}
	if result.Closed {
		resp.Rating = result.Consensus.Rating
		resp.Outlook = result.Consensus.Outlook
		resp.RatingAction = result.Register.RatingAction
	}
	return resp, nil
}

func (h Handler) VotingSummaryHandler(ctx context.Context, meetingID string, instrumentDetailID string) (httptransport.VotingSummaryResponse, error) {
	summary, err := h.Summary.Summary(ctx, meetingID, instrumentDetailID)
	if err != nil {
		return httptransport.VotingSummaryResponse{}, err
	}
	resp := httptransport.VotingSummaryResponse{
		Register:   registerResponse(summary.Register),
		Closed:     summary.Closed,
		Groups:     voteGroupItems(summary.Groups),
		Ballots:    ballotItems(summary.Ballots),
		Dissenters: ballotItems(summary.Dissenters),
	}
	if summary.Closed {
		resp.Rating = summary.Consensus.Rating
		resp.Outlook = summary.Consensus.Outlook
	}
	return resp, nil
}

func (h Handler) MandateRegistersHandler(ctx context.Context, mandateID string) (httptransport.MandateRegistersResponse, error) {
	entries, err := h.Summary.RegistersByMandate(ctx, mandateID)
	if err != nil {
		return httptransport.MandateRegistersResponse{}, err
	}
	resp := httptransport.MandateRegistersResponse{
		MandateID: strings.TrimSpace(mandateID),
		Items:     make([]httptransport.RegisterResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Items = append(resp.Items, registerResponse(entry))
	}
	return resp, nil
}

func meetingResponse(meeting entities.Meeting, status entities.MeetingStatus) httptransport.MeetingResponse {
	return httptransport.MeetingResponse{
		MeetingID:       meeting.MeetingID,
		CommitteeTypeID: meeting.CommitteeTypeID,
		CategoryID:      meeting.CategoryID,
		MeetingAt:       meeting.MeetingAt.UTC().Format(time.RFC3339),
		Status:          string(status),
		NumberOfCases:   meeting.NumberOfCases,
		Active:          meeting.Active,
	}
}

func registerResponse(entry entities.RegisterEntry) httptransport.RegisterResponse {
	return httptransport.RegisterResponse{
		RegisterID:         entry.RegisterID,
		MeetingID:          entry.MeetingID,
		MandateID:          entry.MandateID,
		InstrumentDetailID: entry.InstrumentDetailID,
		InstrumentText:     entry.InstrumentText,
		PreviousRating:     entry.PreviousRating,
		AssignedRating:     entry.AssignedRating,
		AssignedOutlook:    entry.AssignedOutlook,
		RatingAction:       entry.RatingAction,
		VotingStatus:       entry.VotingStatus,
	}
}

func voteGroupItems(groups []application.VoteGroup) []httptransport.VoteGroupItem {
	items := make([]httptransport.VoteGroupItem, 0, len(groups))
	for _, group := range groups {
		items = append(items, httptransport.VoteGroupItem{
			Rating:      group.Rating,
			Outlook:     group.Outlook,
			Score:       group.Score,
			BallotCount: group.BallotCount,
			HasChairman: group.HasChairman,
		})
	}
	return items
}

func ballotItems(ballots []entities.Ballot) []httptransport.BallotItem {
	items := make([]httptransport.BallotItem, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, httptransport.BallotItem{
			BallotID:      ballot.BallotID,
			MemberID:      ballot.MemberID,
			Rating:        ballot.Rating,
			Outlook:       ballot.Outlook,
			Weightage:     ballot.Weightage,
			Dissent:       ballot.Dissent,
			DissentRemark: ballot.DissentRemark,
			Chairman:      ballot.Chairman,
		})
	}
	return items
}
