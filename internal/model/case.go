package model

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the canonical pipeline stage of a case. Legacy rows may carry
// values outside this set; those still round-trip for display but are never
// accepted on writes.
type CaseStatus string

const (
	CaseStatusNew            CaseStatus = "new"
	CaseStatusContacted      CaseStatus = "contacted"
	CaseStatusDepositPaid    CaseStatus = "deposit_paid"
	CaseStatusAppointmentSet CaseStatus = "appointment_set"
	CaseStatusArrived        CaseStatus = "arrived"
	CaseStatusCompleted      CaseStatus = "completed"
	CaseStatusLost           CaseStatus = "lost"
)

// caseStatusOrder is the pipeline in display order. Lost sits off-path.
var caseStatusOrder = []CaseStatus{
	CaseStatusNew,
	CaseStatusContacted,
	CaseStatusDepositPaid,
	CaseStatusAppointmentSet,
	CaseStatusArrived,
	CaseStatusCompleted,
}

var caseStatusLabels = map[CaseStatus]string{
	CaseStatusNew:            "New",
	CaseStatusContacted:      "Contacted",
	CaseStatusDepositPaid:    "Deposit paid",
	CaseStatusAppointmentSet: "Appointment set",
	CaseStatusArrived:        "Arrived",
	CaseStatusCompleted:      "Completed",
	CaseStatusLost:           "Lost",
}

// CaseStatusFromString maps a raw string to a CaseStatus. The second return
// reports whether the value is one of the canonical stages.
func CaseStatusFromString(s string) (CaseStatus, bool) {
	status := CaseStatus(s)
	_, known := caseStatusLabels[status]
	return status, known
}

// Known reports whether the status is a canonical pipeline value.
func (s CaseStatus) Known() bool {
	_, ok := caseStatusLabels[s]
	return ok
}

// Label returns the human label for the status. Unknown values pass through
// untouched so legacy data still renders.
func (s CaseStatus) Label() string {
	if label, ok := caseStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// StepIndex returns the zero-based pipeline position, or -1 for lost and
// unknown values.
func (s CaseStatus) StepIndex() int {
	for i, st := range caseStatusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// TotalSteps is the number of on-path pipeline stages.
func TotalSteps() int {
	return len(caseStatusOrder)
}

// CaseSource identifies the form a lead came in through.
type CaseSource string

const (
	CaseSourceContact    CaseSource = "contact"
	CaseSourceOnboarding CaseSource = "onboarding"
	CaseSourceIntake     CaseSource = "intake"
)

func (s CaseSource) Known() bool {
	switch s {
	case CaseSourceContact, CaseSourceOnboarding, CaseSourceIntake:
		return true
	}
	return false
}

// Known next-action markers. The field itself stays free text; these are the
// values the staff UI offers.
const (
	NextActionSendWhatsapp    = "send_whatsapp"
	NextActionDoctorReview    = "doctor_review"
	NextActionReadyForBooking = "ready_for_booking"
)

// Case is the aggregate record tracking one prospective patient from intake
// to completion. Ref is the opaque public reference used in URLs and portal
// tokens; ID never leaves the backoffice.
type Case struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Ref       string    `db:"ref" json:"ref"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Treatment string    `db:"treatment" json:"treatment,omitempty"`
	Message   string    `db:"message" json:"message,omitempty"`
	Source    string    `db:"source" json:"source"`
	Lang      string    `db:"lang" json:"lang,omitempty"`

	Status     string     `db:"status" json:"status"`
	NextAction *string    `db:"next_action" json:"next_action,omitempty"`
	FollowUpAt *time.Time `db:"follow_up_at" json:"follow_up_at,omitempty"`

	DoctorID           *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	DoctorReviewStatus *string    `db:"doctor_review_status" json:"doctor_review_status,omitempty"`
	DoctorReviewNotes  *string    `db:"doctor_review_notes" json:"doctor_review_notes,omitempty"`

	CalBookingID *string    `db:"cal_booking_id" json:"cal_booking_id,omitempty"`
	MeetingStart *time.Time `db:"meeting_start" json:"meeting_start,omitempty"`
	MeetingEnd   *time.Time `db:"meeting_end" json:"meeting_end,omitempty"`

	UTMSource   string `db:"utm_source" json:"utm_source,omitempty"`
	UTMMedium   string `db:"utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign string `db:"utm_campaign" json:"utm_campaign,omitempty"`
	Referrer    string `db:"referrer" json:"referrer,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCaseRequest is the public intake payload. Website is the honeypot
// field; it is hidden from real users via layout and must stay empty.
type CreateCaseRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Treatment string `json:"treatment"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Lang      string `json:"lang"`

	Website      string `json:"website"`
	FormOpenTime int64  `json:"form_open_time"`
	ClientKey    string `json:"client_key"`

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	Referrer    string `json:"referrer"`
}

// HasContact reports whether at least one way to reach the lead was given.
func (r *CreateCaseRequest) HasContact() bool {
	return r.Name != "" || r.Email != "" || r.Phone != ""
}

// UpdateCaseRequest is the staff PATCH payload; nil fields are left untouched.
type UpdateCaseRequest struct {
	Status             *string    `json:"status" binding:"omitempty,case_status"`
	StatusNote         *string    `json:"status_note"`
	NextAction         *string    `json:"next_action"`
	FollowUpAt         *time.Time `json:"follow_up_at"`
	DoctorID           *uuid.UUID `json:"doctor_id"`
	DoctorReviewStatus *string    `json:"doctor_review_status"`
	DoctorReviewNotes  *string    `json:"doctor_review_notes"`
	CalBookingID       *string    `json:"cal_booking_id"`
	MeetingStart       *time.Time `json:"meeting_start"`
	MeetingEnd         *time.Time `json:"meeting_end"`
}

// CaseFilters narrows staff list queries.
type CaseFilters struct {
	Status     string     `form:"status"`
	Source     string     `form:"source"`
	DoctorID   *uuid.UUID `form:"doctor_id"`
	SearchTerm string     `form:"search"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}
