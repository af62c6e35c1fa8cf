package http

// ExchangeRequest is the request body for POST /api/v1/exchanges.
type ExchangeRequest struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id,omitempty"`
}

// ApproveRequest is the request body for POST /api/v1/knowledge/:id/approve.
// Narrative, when non-empty, overrides the stored narrative at the
// transition.
type ApproveRequest struct {
	ApprovedBy string `json:"approved_by"`
	Narrative  string `json:"narrative,omitempty"`
}

// RejectRequest is the request body for POST /api/v1/knowledge/:id/reject.
type RejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

// FeedbackRequest is the request body for POST /api/v1/knowledge/:id/feedback.
// Helpful is a pointer so a missing field is distinguishable from false.
type FeedbackRequest struct {
	Helpful *bool `json:"helpful"`
}

// UpdateRequest is the request body for PATCH /api/v1/knowledge/:id.
// Nil fields are left unchanged.
type UpdateRequest struct {
	Topic       *string  `json:"topic,omitempty"`
	Narrative   *string  `json:"narrative,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
