package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meridian/contexts/rating-operations/committee-engine/application"
	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	"meridian/contexts/rating-operations/committee-engine/ports"
)

// MeetingUseCase manages committee meetings, their rosters, and the cases
// placed before them.
type MeetingUseCase struct {
	Repo   ports.CommitteeRepository
	Atomic ports.Atomic
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type ScheduleMeetingInput struct {
	CommitteeTypeID string
	CategoryID      string
	MeetingAt       time.Time
	// MemberIDs is the initial roster; the first entry chairs the meeting.
	MemberIDs []string
}

// ScheduleMeeting creates a meeting with its initial roster. The roster must
// already satisfy the minimum size; meetings never start understaffed.
func (uc MeetingUseCase) ScheduleMeeting(ctx context.Context, input ScheduleMeetingInput) (entities.Meeting, error) {
	logger := application.ResolveLogger(uc.Logger)
	if input.CommitteeTypeID == "" || input.MeetingAt.IsZero() {
		return entities.Meeting{}, domainerrors.ErrInvalidCommitteeInput
	}
	if len(input.MemberIDs) < entities.MinimumActiveMembers {
		return entities.Meeting{}, fmt.Errorf("%w: roster of %d", domainerrors.ErrMinimumMembers, len(input.MemberIDs))
	}
	seen := make(map[string]struct{}, len(input.MemberIDs))
	for _, memberID := range input.MemberIDs {
		if memberID == "" {
			return entities.Meeting{}, domainerrors.ErrInvalidCommitteeInput
		}
		if _, dup := seen[memberID]; dup {
			return entities.Meeting{}, fmt.Errorf("%w: duplicate member %s", domainerrors.ErrInvalidCommitteeInput, memberID)
		}
		seen[memberID] = struct{}{}
	}

	meetingID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	now := uc.Clock.Now()
	meeting := entities.Meeting{
		MeetingID:       meetingID,
		CommitteeTypeID: input.CommitteeTypeID,
		CategoryID:      input.CategoryID,
		MeetingAt:       input.MeetingAt,
		Status:          entities.MeetingStatusUpcoming,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		if err := uc.Repo.SaveMeeting(ctx, meeting); err != nil {
			return err
		}
		for i, memberID := range input.MemberIDs {
			member := entities.Member{
				MemberID:  memberID,
				MeetingID: meetingID,
				Chairman:  i == 0,
				Active:    true,
			}
			if err := uc.Repo.SaveMember(ctx, member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("committee meeting scheduled",
		"event", "committee_meeting_scheduled",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"roster_size", len(input.MemberIDs),
	)
	return meeting, nil
}

// AddMember places a member on the roster, or reactivates a previously
// removed one. Re-adding an active member is a no-op.
func (uc MeetingUseCase) AddMember(ctx context.Context, meetingID string, memberID string, chairman bool) error {
	logger := application.ResolveLogger(uc.Logger)
	if meetingID == "" || memberID == "" {
		return domainerrors.ErrInvalidCommitteeInput
	}
	err := uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		if _, err := uc.Repo.GetMeeting(ctx, meetingID); err != nil {
			return err
		}
		existing, found, err := uc.Repo.GetMember(ctx, meetingID, memberID)
		if err != nil {
			return err
		}
		if found && existing.Active && existing.Chairman == chairman {
			return nil
		}
		member := entities.Member{
			MemberID:  memberID,
			MeetingID: meetingID,
			Chairman:  chairman,
			Active:    true,
		}
		return uc.Repo.SaveMember(ctx, member)
	})
	if err != nil {
		return err
	}
	logger.Info("committee member added",
		"event", "committee_member_added",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"member_id", memberID,
	)
	return nil
}

// RemoveMember deactivates a roster member. The roster may never drop below
// the minimum, so the size check and the write share one transaction.
func (uc MeetingUseCase) RemoveMember(ctx context.Context, meetingID string, memberID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if meetingID == "" || memberID == "" {
		return domainerrors.ErrInvalidCommitteeInput
	}
	err := uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		member, found, err := uc.Repo.GetMember(ctx, meetingID, memberID)
		if err != nil {
			return err
		}
		if !found || !member.Active {
			return domainerrors.ErrMemberNotFound
		}
		active, err := uc.Repo.ListActiveMembers(ctx, meetingID)
		if err != nil {
			return err
		}
		if len(active) <= entities.MinimumActiveMembers {
			return fmt.Errorf("%w: roster of %d", domainerrors.ErrMinimumMembers, len(active))
		}
		member.Active = false
		return uc.Repo.SaveMember(ctx, member)
	})
	if err != nil {
		return err
	}
	logger.Info("committee member removed",
		"event", "committee_member_removed",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"member_id", memberID,
	)
	return nil
}

type AddCaseInput struct {
	MeetingID          string
	MandateID          string
	InstrumentDetailID string
	InstrumentText     string
	PreviousRating     string
}

// AddCase places a mandate instrument on a meeting's agenda. One register
// entry per (meeting, instrument); duplicates are rejected.
func (uc MeetingUseCase) AddCase(ctx context.Context, input AddCaseInput) (entities.RegisterEntry, error) {
	logger := application.ResolveLogger(uc.Logger)
	if input.MeetingID == "" || input.MandateID == "" || input.InstrumentDetailID == "" {
		return entities.RegisterEntry{}, domainerrors.ErrInvalidCommitteeInput
	}
	registerID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.RegisterEntry{}, err
	}
	now := uc.Clock.Now()
	entry := entities.RegisterEntry{
		RegisterID:         registerID,
		MeetingID:          input.MeetingID,
		MandateID:          input.MandateID,
		InstrumentDetailID: input.InstrumentDetailID,
		InstrumentText:     input.InstrumentText,
		PreviousRating:     input.PreviousRating,
		VotingStatus:       entities.VotingStatusUpcoming,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = uc.Atomic.Atomic(ctx, func(ctx context.Context) error {
		meeting, err := uc.Repo.GetMeeting(ctx, input.MeetingID)
		if err != nil {
			return err
		}
		if _, err := uc.Repo.GetRegister(ctx, input.MeetingID, input.InstrumentDetailID); err == nil {
			return fmt.Errorf("%w: instrument %s", domainerrors.ErrCaseExists, input.InstrumentDetailID)
		}
		if err := uc.Repo.SaveRegister(ctx, entry); err != nil {
			return err
		}
		meeting.NumberOfCases++
		meeting.UpdatedAt = now
		return uc.Repo.SaveMeeting(ctx, meeting)
	})
	if err != nil {
		return entities.RegisterEntry{}, err
	}

	logger.Info("committee case registered",
		"event", "committee_case_registered",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"meeting_id", input.MeetingID,
		"mandate_id", input.MandateID,
		"instrument_detail_id", input.InstrumentDetailID,
	)
	return entry, nil
}
