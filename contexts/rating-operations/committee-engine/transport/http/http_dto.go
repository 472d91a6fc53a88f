package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ScheduleMeetingRequest struct {
	CommitteeTypeID string   `json:"committee_type_id"`
	CategoryID      string   `json:"category_id,omitempty"`
	MeetingAt       string   `json:"meeting_at"`
	MemberIDs       []string `json:"member_ids"`
}

type MeetingResponse struct {
	MeetingID       string `json:"meeting_id"`
	CommitteeTypeID string `json:"committee_type_id"`
	CategoryID      string `json:"category_id,omitempty"`
	MeetingAt       string `json:"meeting_at"`
	Status          string `json:"status"`
	NumberOfCases   int    `json:"number_of_cases"`
	Active          bool   `json:"is_active"`
}

type MeetingListResponse struct {
	Items []MeetingResponse `json:"items"`
}

type MemberRequest struct {
	MemberID string `json:"member_id"`
	Chairman bool   `json:"is_chairman,omitempty"`
}

type AddCaseRequest struct {
	MandateID          string `json:"mandate_id"`
	InstrumentDetailID string `json:"instrument_detail_id"`
	InstrumentText     string `json:"instrument_text,omitempty"`
	PreviousRating     string `json:"previous_rating,omitempty"`
}

type RegisterResponse struct {
	RegisterID         string `json:"register_id"`
	MeetingID          string `json:"meeting_id"`
	MandateID          string `json:"mandate_id"`
	InstrumentDetailID string `json:"instrument_detail_id"`
	InstrumentText     string `json:"instrument_text,omitempty"`
	PreviousRating     string `json:"previous_rating,omitempty"`
	AssignedRating     string `json:"assigned_rating,omitempty"`
	AssignedOutlook    string `json:"assigned_outlook,omitempty"`
	RatingAction       string `json:"rating_action,omitempty"`
	VotingStatus       string `json:"voting_status"`
}

type CastBallotRequest struct {
	MemberID      string `json:"member_id"`
	Rating        string `json:"rating"`
	Outlook       string `json:"outlook,omitempty"`
	DissentRemark string `json:"dissent_remark,omitempty"`
}

type VoteGroupItem struct {
	Rating      string  `json:"rating"`
	Outlook     string  `json:"outlook,omitempty"`
	Score       float64 `json:"score"`
	BallotCount int     `json:"ballot_count"`
	HasChairman bool    `json:"has_chairman"`
}

type CastBallotResponse struct {
	BallotID     string           `json:"ballot_id"`
	Dissent      bool             `json:"is_dissent"`
	Closed       bool             `json:"closed"`
	Rating       string           `json:"rating,omitempty"`
	Outlook      string           `json:"outlook,omitempty"`
	RatingAction string           `json:"rating_action,omitempty"`
	Groups       []VoteGroupItem  `json:"groups"`
	Register     RegisterResponse `json:"register"`
}

type BallotItem struct {
	BallotID      string  `json:"ballot_id"`
	MemberID      string  `json:"member_id"`
	Rating        string  `json:"rating"`
	Outlook       string  `json:"outlook,omitempty"`
	Weightage     float64 `json:"weightage"`
	Dissent       bool    `json:"is_dissent"`
	DissentRemark string  `json:"dissent_remark,omitempty"`
	Chairman      bool    `json:"is_chairman"`
}

type VotingSummaryResponse struct {
	Register   RegisterResponse `json:"register"`
	Closed     bool             `json:"closed"`
	Rating     string           `json:"rating,omitempty"`
	Outlook    string           `json:"outlook,omitempty"`
	Groups     []VoteGroupItem  `json:"groups"`
	Ballots    []BallotItem     `json:"ballots"`
	Dissenters []BallotItem     `json:"dissenters"`
}

type MandateRegistersResponse struct {
	MandateID string             `json:"mandate_id"`
	Items     []RegisterResponse `json:"items"`
}
