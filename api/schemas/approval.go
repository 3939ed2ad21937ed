package schemas

// -- Approval Schemas --

// ApprovalRequest describes a blocked action the agent wants a human to
// sign off on. Action is a short imperative description ("Place order for
// $42.10 on shop.example"); Details is free-form caller context.
type ApprovalRequest struct {
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
	Screenshot bool   `json:"screenshot,omitempty"`
	Profile    string `json:"profile,omitempty"`
}

// ApprovalOutcome is the terminal result of one approval request. A timeout
// is reported as Approved=false with an empty Error; Error is reserved for
// request failures (no delivery target, failed delivery of the request).
type ApprovalOutcome struct {
	Approved   bool   `json:"approved"`
	ApprovalID string `json:"approvalId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// FillResult is the only shape credential operations are allowed to return
// across the tool boundary: booleans and counts, never values.
type FillResult struct {
	Success bool   `json:"success"`
	Filled  bool   `json:"filled"`
	Fields  int    `json:"fields,omitempty"`
	Error   string `json:"error,omitempty"`
}
