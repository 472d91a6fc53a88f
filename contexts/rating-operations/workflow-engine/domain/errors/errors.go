package errors

import "errors"

var (
	ErrInvalidTransitionInput = errors.New("invalid workflow transition input")
	ErrActivityNotFound       = errors.New("workflow activity not found")
	ErrEdgeNotFound           = errors.New("workflow edge not found")
	ErrInstanceNotFound       = errors.New("workflow instance not found")
	ErrInstanceExists         = errors.New("active workflow instance already exists")
	ErrMandateNotFound        = errors.New("mandate not found")
	ErrInstrumentNotFound     = errors.New("instrument detail not found")
	ErrInvalidState           = errors.New("workflow instance is in an invalid state for this operation")
	ErrVotingPending          = errors.New("committee voting is not complete")
	ErrConcurrencyConflict    = errors.New("concurrent workflow modification detected")
	ErrPerformerUnresolved    = errors.New("performer could not be resolved for activity")
)
