package application

import (
	"context"
	"strings"
	"time"

	"meridian/contexts/rating-operations/workflow-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	"meridian/contexts/rating-operations/workflow-engine/ports"
)

// Activity codes form a closed catalog. Unknown codes fall through to an
// advance-only default; that is deliberate, not an error.
const (
	CodeAssignGroupHead     = "10100"
	CodeAssignAnalyst       = "10150"
	CodeInformationReceived = "10200"
	CodeDraftNoteCompleted  = "10300"
	CodeSentToCommittee     = "10450"
	CodeVotingOpened        = "10500"
	CodeVotingCompleted     = "10550"
	CodeRatingCommunicated  = "10600"
	CodeAcceptanceReceived  = "10700"
	CodePressReleaseIssued  = "10750"
	CodeRatingLetterIssued  = "10800"
	CodeMandateClosed       = "10900"
)

// PerformerStrategy selects who performs the steps activated by a code:
// the generically supplied acting user, or a role occupant resolved from
// the instance's mandate.
type PerformerStrategy string

const (
	PerformerActingUser    PerformerStrategy = "acting_user"
	PerformerGroupHead     PerformerStrategy = "group_head"
	PerformerRatingAnalyst PerformerStrategy = "rating_analyst"
)

// SideEffectInput carries per-call values a side effect may consume.
type SideEffectInput struct {
	Instance           entities.Instance
	ActingUserID       string
	AssignedUserID     string
	InstrumentDetailID string
	EffectiveDate      *time.Time
	Now                time.Time
}

// SideEffectStores are the collaborators side effects mutate. Both run
// inside the transition's atomic boundary.
type SideEffectStores struct {
	Workflow ports.WorkflowRepository
	Register ports.RegisterGateway
}

// SideEffect mutations are unconditional SETs so a retried transition cannot
// corrupt state after a partial failure.
type SideEffect func(ctx context.Context, stores SideEffectStores, in SideEffectInput) error

type CatalogEntry struct {
	Code        string
	Description string
	Performer   PerformerStrategy
	Apply       SideEffect
	Compensate  SideEffect
}

// Catalog maps activity code to its transition entry. Built once at startup
// and passed by reference into the dispatcher; never mutated at runtime.
type Catalog map[string]CatalogEntry

// Entry resolves a code, defaulting unknown codes to advance-only.
func (c Catalog) Entry(code string) CatalogEntry {
	if entry, ok := c[strings.TrimSpace(code)]; ok {
		return entry
	}
	return CatalogEntry{
		Code:        strings.TrimSpace(code),
		Description: "advance only",
		Performer:   PerformerActingUser,
	}
}

func NewCatalog() Catalog {
	return Catalog{
		CodeAssignGroupHead: {
			Code:        CodeAssignGroupHead,
			Description: "assign group head to mandate",
			Performer:   PerformerGroupHead,
			Apply:       setMandateAssignee(setGroupHead, "Group Head Assigned"),
			Compensate:  clearMandateAssignee(clearGroupHead, "Mandate Received"),
		},
		CodeAssignAnalyst: {
			Code:        CodeAssignAnalyst,
			Description: "assign rating analyst to mandate",
			Performer:   PerformerRatingAnalyst,
			Apply:       setMandateAssignee(setAnalyst, "Analyst Assigned"),
			Compensate:  clearMandateAssignee(clearAnalyst, "Group Head Assigned"),
		},
		CodeInformationReceived: {
			Code:        CodeInformationReceived,
			Description: "information undertaking received",
			Performer:   PerformerRatingAnalyst,
			Apply:       setMandateStatus("Under Review"),
		},
		CodeDraftNoteCompleted: {
			Code:        CodeDraftNoteCompleted,
			Description: "draft rating note completed",
			Performer:   PerformerGroupHead,
		},
		CodeSentToCommittee: {
			Code:        CodeSentToCommittee,
			Description: "mandate sent to rating committee",
			Performer:   PerformerActingUser,
			Apply:       sendToCommittee,
			Compensate:  setMandateStatus("Under Review"),
		},
		CodeVotingOpened: {
			Code:        CodeVotingOpened,
			Description: "committee voting in progress",
			Performer:   PerformerActingUser,
			Apply:       requireRegister,
		},
		CodeVotingCompleted: {
			Code:        CodeVotingCompleted,
			Description: "committee voting completed",
			Performer:   PerformerRatingAnalyst,
			Apply:       consumeVotingResult,
		},
		CodeRatingCommunicated: {
			Code:        CodeRatingCommunicated,
			Description: "assigned rating communicated to client",
			Performer:   PerformerRatingAnalyst,
			Apply:       setMandateStatus("Rating Communicated"),
		},
		CodeAcceptanceReceived: {
			Code:        CodeAcceptanceReceived,
			Description: "client acceptance received",
			Performer:   PerformerRatingAnalyst,
			Apply:       stampInstrumentDate(setAcceptanceDate),
		},
		CodePressReleaseIssued: {
			Code:        CodePressReleaseIssued,
			Description: "press release issued",
			Performer:   PerformerActingUser,
			Apply:       stampInstrumentDate(setPressReleaseDate),
		},
		CodeRatingLetterIssued: {
			Code:        CodeRatingLetterIssued,
			Description: "rating letter issued",
			Performer:   PerformerActingUser,
			Apply:       stampInstrumentDate(setRatingLetterDate),
		},
		CodeMandateClosed: {
			Code:        CodeMandateClosed,
			Description: "mandate closed, instrument deactivated",
			Performer:   PerformerActingUser,
			Apply:       closeMandate,
		},
	}
}

func setMandateStatus(status string) SideEffect {
	return func(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
		mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
		if err != nil {
			return err
		}
		mandate.Status = status
		return stores.Workflow.UpdateMandate(ctx, mandate)
	}
}

func setMandateAssignee(assign func(*ports.Mandate, string), status string) SideEffect {
	return func(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
		if strings.TrimSpace(in.AssignedUserID) == "" {
			return domainerrors.ErrInvalidTransitionInput
		}
		mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
		if err != nil {
			return err
		}
		assign(&mandate, strings.TrimSpace(in.AssignedUserID))
		mandate.Status = status
		return stores.Workflow.UpdateMandate(ctx, mandate)
	}
}

func clearMandateAssignee(clear func(*ports.Mandate), status string) SideEffect {
	return func(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
		mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
		if err != nil {
			return err
		}
		clear(&mandate)
		mandate.Status = status
		return stores.Workflow.UpdateMandate(ctx, mandate)
	}
}

func setGroupHead(m *ports.Mandate, userID string) { m.GroupHeadID = userID }
func setAnalyst(m *ports.Mandate, userID string)   { m.RatingAnalystID = userID }
func clearGroupHead(m *ports.Mandate)              { m.GroupHeadID = "" }
func clearAnalyst(m *ports.Mandate)                { m.RatingAnalystID = "" }

func sendToCommittee(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
	mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
	if err != nil {
		return err
	}
	mandate.Status = "Sent to Committee"
	if err := stores.Workflow.UpdateMandate(ctx, mandate); err != nil {
		return err
	}
	return stores.Register.OpenVoting(ctx, in.Instance.MandateID, in.Now)
}

func requireRegister(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
	_, found, err := stores.Register.VotingStatus(ctx, in.Instance.MandateID)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrInvalidState
	}
	return nil
}

func consumeVotingResult(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
	status, found, err := stores.Register.VotingStatus(ctx, in.Instance.MandateID)
	if err != nil {
		return err
	}
	if !found || !strings.EqualFold(status, "Completed") {
		return domainerrors.ErrVotingPending
	}
	mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
	if err != nil {
		return err
	}
	mandate.Status = "Voting Completed"
	return stores.Workflow.UpdateMandate(ctx, mandate)
}

func stampInstrumentDate(stamp func(*ports.InstrumentDetail, time.Time)) SideEffect {
	return func(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
		if strings.TrimSpace(in.InstrumentDetailID) == "" {
			return domainerrors.ErrInvalidTransitionInput
		}
		detail, err := stores.Workflow.GetInstrumentDetail(ctx, strings.TrimSpace(in.InstrumentDetailID))
		if err != nil {
			return err
		}
		effective := in.Now
		if in.EffectiveDate != nil {
			effective = in.EffectiveDate.UTC()
		}
		stamp(&detail, effective)
		return stores.Workflow.UpdateInstrumentDetail(ctx, detail)
	}
}

func setAcceptanceDate(d *ports.InstrumentDetail, at time.Time)   { d.AcceptanceDate = &at }
func setPressReleaseDate(d *ports.InstrumentDetail, at time.Time) { d.PressReleaseDate = &at }
func setRatingLetterDate(d *ports.InstrumentDetail, at time.Time) { d.RatingLetterDate = &at }

func closeMandate(ctx context.Context, stores SideEffectStores, in SideEffectInput) error {
	if strings.TrimSpace(in.InstrumentDetailID) != "" {
		detail, err := stores.Workflow.GetInstrumentDetail(ctx, strings.TrimSpace(in.InstrumentDetailID))
		if err != nil {
			return err
		}
		detail.Active = false
		if err := stores.Workflow.UpdateInstrumentDetail(ctx, detail); err != nil {
			return err
		}
	}
	mandate, err := stores.Workflow.GetMandate(ctx, in.Instance.MandateID)
	if err != nil {
		return err
	}
	mandate.Status = "Closed"
	return stores.Workflow.UpdateMandate(ctx, mandate)
}
