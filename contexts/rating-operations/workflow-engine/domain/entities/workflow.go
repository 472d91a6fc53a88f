package entities

import "time"

// Activity is one named, coded step in a rating process. Reference data;
// mutated only by administrators.
type Activity struct {
	ActivityID       string
	Code             string
	Name             string
	CompletionStatus string
	Active           bool
}

// Edge is a directed activity-to-activity transition scoped to one rating
// process. A performed activity may fan out to several edges, each producing
// its own ledger row.
type Edge struct {
	EdgeID            string
	RatingProcessID   string
	CurrentActivityID string
	NextActivityID    string
	AssignerRoleID    string
	PerformerRoleID   string
	SerialNumber      int
	TATDays           int
	LastActivity      bool
	Active            bool
}

// Instance is one mandate's traversal of one rating process in one financial
// year. Created once per rating cycle; never deleted, only deactivated.
type Instance struct {
	InstanceID      string
	MandateID       string
	CompanyID       string
	FinancialYearID string
	RatingProcessID string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LogStatusRollback marks ledger rows invalidated by a rollback. Forward
// rows carry an empty status.
const LogStatusRollback = "rollback"

// InstanceLog is one append-only ledger row. The set of active rows for an
// instance is its pending-step frontier: normally one row, more after a
// fan-out. A row is deactivated exactly once; rollback creates fresh rows
// instead of reactivating old ones.
type InstanceLog struct {
	LogID       string
	InstanceID  string
	EdgeID      string
	Status      string
	Active      bool
	AssignedBy  string
	PerformedBy string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RollbackEntry is the audit record written once per rollback invocation.
type RollbackEntry struct {
	RollbackID   string
	InstanceID   string
	ActivityCode string
	Remark       string
	CreatedBy    string
	CreatedAt    time.Time
}
