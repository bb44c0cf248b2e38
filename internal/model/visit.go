package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Visit represents an upcoming visit joined with identifying property and
// prospect fields, as returned by the visits read.
type Visit struct {
	ID              int64     `json:"id" db:"id"`
	ScheduledAt     time.Time `json:"scheduled_at" db:"scheduled_at"`
	PropertyTitle   string    `json:"property_title" db:"property_title"`
	PropertyAddress string    `json:"property_address" db:"property_address"`
	ProspectName    string    `json:"prospect_name" db:"prospect_name"`
}

// AssistantLog is one handled message, persisted asynchronously for analytics
type AssistantLog struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	Message        string    `json:"message" db:"message"`
	Intent         Intent    `json:"intent" db:"intent"`
	Entities       JSONMap   `json:"entities" db:"entities"`
	ResponseTimeMs int       `json:"response_time_ms" db:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
