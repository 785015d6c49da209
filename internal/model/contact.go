package model

import (
	"time"

	"github.com/google/uuid"
)

// ContactChannel is the medium of an outbound contact attempt.
type ContactChannel string

const (
	ContactChannelPhone    ContactChannel = "phone"
	ContactChannelWhatsapp ContactChannel = "whatsapp"
	ContactChannelEmail    ContactChannel = "email"
	ContactChannelSMS      ContactChannel = "sms"
	ContactChannelOther    ContactChannel = "other"
)

func ContactChannelFromString(s string) (ContactChannel, bool) {
	ch := ContactChannel(s)
	switch ch {
	case ContactChannelPhone, ContactChannelWhatsapp, ContactChannelEmail,
		ContactChannelSMS, ContactChannelOther:
		return ch, true
	}
	return ch, false
}

// ContactEvent records one outbound contact attempt. Append-only.
type ContactEvent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	Channel   string    `db:"channel" json:"channel"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type LogContactRequest struct {
	Channel string `json:"channel" binding:"required,contact_channel"`
	Note    string `json:"note"`
}
