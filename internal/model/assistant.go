package model

// ChatRequest represents an inbound assistant message
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// ChatResponse represents the assistant's reply to a single message
type ChatResponse struct {
	Intent   Intent    `json:"intent"`
	Entities *Entities `json:"entities"`
	Reply    string    `json:"reply"`

	// NeedsInfo names the next missing slot when the assistant is
	// slot-filling a property registration.
	NeedsInfo string `json:"needsInfo,omitempty"`
	// ReadyForConfirmation is set once every required registration slot is
	// filled; PropertyData then carries the accumulated draft.
	ReadyForConfirmation bool      `json:"readyForConfirmation,omitempty"`
	PropertyData         *Entities `json:"propertyData,omitempty"`

	Visits []Visit `json:"visits,omitempty"`
}

// ConfirmRequest asks the backend to persist the draft accumulated in a session
type ConfirmRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// ConfirmResponse reports the outcome of a draft confirmation
type ConfirmResponse struct {
	Success    bool   `json:"success"`
	PropertyID int64  `json:"property_id,omitempty"`
	Message    string `json:"message,omitempty"`
}
