package model

import "time"

// Activity event types published to the back-office feed.
const (
	ActivityMessageHandled = "assistant.message_handled"
	ActivityDraftReady     = "assistant.draft_ready"
	ActivityDraftConfirmed = "assistant.draft_confirmed"
)

// ActivityEvent is a single entry on the live activity feed
type ActivityEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	At        time.Time   `json:"at"`
}
