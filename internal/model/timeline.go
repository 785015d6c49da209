package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TimelineEvent is one immutable entry in a case's stage history. Events are
// only ever appended; corrections become new events.
type TimelineEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	CaseID    uuid.UUID       `db:"case_id" json:"case_id"`
	Stage     string          `db:"stage" json:"stage"`
	Note      string          `db:"note" json:"note"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type AppendTimelineRequest struct {
	Stage   string          `json:"stage" binding:"required"`
	Note    *string         `json:"note"`
	Payload json.RawMessage `json:"payload"`
	// UpdateStatus also moves the case to Stage when Stage is canonical.
	UpdateStatus bool `json:"update_status"`
}
