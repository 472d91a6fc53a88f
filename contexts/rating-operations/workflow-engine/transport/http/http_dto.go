package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateInstanceRequest struct {
	MandateID       string `json:"mandate_id"`
	CompanyID       string `json:"company_id"`
	FinancialYearID string `json:"financial_year_id"`
	RatingProcessID string `json:"rating_process_id"`
}

type InstanceResponse struct {
	InstanceID      string `json:"instance_id"`
	MandateID       string `json:"mandate_id"`
	CompanyID       string `json:"company_id"`
	FinancialYearID string `json:"financial_year_id"`
	RatingProcessID string `json:"rating_process_id"`
	Active          bool   `json:"is_active"`
}

type AdvanceRequest struct {
	ActivityCode       string `json:"activity_code"`
	AssignedUserID     string `json:"assigned_user_id,omitempty"`
	InstrumentDetailID string `json:"instrument_detail_id,omitempty"`
	EffectiveDate      string `json:"effective_date,omitempty"`
}

type AdvanceResponse struct {
	InstanceID string            `json:"instance_id"`
	Terminal   bool              `json:"terminal"`
	Activated  []PendingStepItem `json:"activated"`
}

type RollbackRequest struct {
	ActivityCode string `json:"activity_code"`
	Remark       string `json:"remark"`
}

type RollbackResponse struct {
	InstanceID   string            `json:"instance_id"`
	RollbackID   string            `json:"rollback_id"`
	ActivityCode string            `json:"activity_code"`
	Reactivated  []PendingStepItem `json:"reactivated"`
}

type PendingStepItem struct {
	LogID        string `json:"log_id"`
	EdgeID       string `json:"edge_id"`
	ActivityID   string `json:"activity_id,omitempty"`
	ActivityCode string `json:"activity_code,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
	AssignedBy   string `json:"assigned_by"`
	PerformedBy  string `json:"performed_by"`
	TATDays      int    `json:"tat_days,omitempty"`
}

type FrontierResponse struct {
	InstanceID string            `json:"instance_id"`
	Items      []PendingStepItem `json:"items"`
}

type RollbackHistoryItem struct {
	RollbackID   string `json:"rollback_id"`
	ActivityCode string `json:"activity_code"`
	Remark       string `json:"remark"`
	CreatedBy    string `json:"created_by"`
	CreatedAt    string `json:"created_at"`
}

type RollbackHistoryResponse struct {
	InstanceID string                `json:"instance_id"`
	Items      []RollbackHistoryItem `json:"items"`
}
