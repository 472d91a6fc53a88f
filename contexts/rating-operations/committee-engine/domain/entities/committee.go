package entities

import "time"

type MeetingStatus string

const (
	MeetingStatusUpcoming  MeetingStatus = "Upcoming"
	MeetingStatusLive      MeetingStatus = "Live"
	MeetingStatusCompleted MeetingStatus = "Completed"
)

// LiveGraceWindow is the fixed lead time during which a scheduled meeting is
// already presented as Live.
const LiveGraceWindow = 15 * time.Minute

const (
	ChairmanWeightage = 1.1
	MemberWeightage   = 1.0

	// MinimumActiveMembers is the smallest roster a meeting may retain.
	MinimumActiveMembers = 3
)

type Meeting struct {
	MeetingID       string
	CommitteeTypeID string
	CategoryID      string
	MeetingAt       time.Time
	Status          MeetingStatus
	NumberOfCases   int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DerivedStatus presents any non-completed meeting inside the grace window
// as Live. The stored status is only authoritative once Completed.
func (m Meeting) DerivedStatus(now time.Time) MeetingStatus {
	if m.Status == MeetingStatusCompleted {
		return MeetingStatusCompleted
	}
	if !m.MeetingAt.After(now.Add(LiveGraceWindow)) {
		return MeetingStatusLive
	}
	return MeetingStatusUpcoming
}

type Member struct {
	MemberID  string
	MeetingID string
	Chairman  bool
	Active    bool
}

// Weightage returns the ballot weight this member carries.
func (m Member) Weightage() float64 {
	if m.Chairman {
		return ChairmanWeightage
	}
	return MemberWeightage
}

// Ballot is one member's vote on one instrument in one meeting. Created on
// first vote, updated thereafter; never duplicated.
type Ballot struct {
	BallotID           string
	InstrumentDetailID string
	MemberID           string
	MeetingID          string
	Rating             string
	Outlook            string
	Weightage          float64
	Dissent            bool
	DissentRemark      string
	Chairman           bool
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ConsensusResult is the published outcome for one instrument. At most one
// active row per instrument; only the consensus engine writes it.
type ConsensusResult struct {
	ResultID           string
	InstrumentDetailID string
	MeetingID          string
	Rating             string
	Outlook            string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const (
	VotingStatusUpcoming  = "Upcoming"
	VotingStatusLive      = "Live"
	VotingStatusCompleted = "Completed"
)

// RegisterEntry bridges the committee back to the workflow. The column name
// behind AssignedRating preserves the historical spelling used downstream.
type RegisterEntry struct {
	RegisterID         string
	MeetingID          string
	MandateID          string
	InstrumentDetailID string
	InstrumentText     string
	PreviousRating     string
	AssignedRating     string
	AssignedOutlook    string
	RatingAction       string
	VotingStatus       string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
