package model

import (
	"time"

	"github.com/google/uuid"
)

// Note is a staff-authored annotation on a case. Notes are never exposed to
// the doctor or patient roles.
type Note struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	Note      string    `db:"note" json:"note"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateNoteRequest struct {
	Note string `json:"note" binding:"required"`
}
