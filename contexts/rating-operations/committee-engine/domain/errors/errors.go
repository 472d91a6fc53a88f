package errors

import "errors"

var (
	ErrInvalidCommitteeInput = errors.New("invalid committee input")
	ErrMeetingNotFound       = errors.New("rating committee meeting not found")
	ErrMemberNotFound        = errors.New("committee member not found")
	ErrRegisterNotFound      = errors.New("meeting register entry not found")
	ErrCaseExists            = errors.New("instrument is already registered for the meeting")
	ErrMinimumMembers        = errors.New("meeting must retain the minimum active membership")
	ErrConcurrencyConflict   = errors.New("concurrent committee modification detected")
)
