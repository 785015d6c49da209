package projection

import (
	"fmt"
	"time"

	"github.com/dentavia/case-api/internal/model"
)

// Input is everything a projection may draw from. Callers load what the role
// can see; the projection decides what actually leaves the server.
type Input struct {
	Case     *model.Case
	Timeline []*model.TimelineEvent
	Contacts []*model.ContactEvent
	Notes    []*model.Note
}

// StaffView is the full record: admins and employees see everything.
type StaffView struct {
	Case            *model.Case            `json:"case"`
	Timeline        []*model.TimelineEvent `json:"timeline"`
	Contacts        []*model.ContactEvent  `json:"contacts"`
	Notes           []*model.Note          `json:"notes"`
	LastContactedAt *time.Time             `json:"last_contacted_at,omitempty"`
}

// DoctorView enumerates the allowed fields explicitly. Anything not listed
// here never reaches a doctor, including fields added to Case later.
type DoctorView struct {
	Ref                string                 `json:"ref"`
	Name               string                 `json:"name"`
	Treatment          string                 `json:"treatment,omitempty"`
	Message            string                 `json:"message,omitempty"`
	Lang               string                 `json:"lang,omitempty"`
	Status             string                 `json:"status"`
	StatusLabel        string                 `json:"status_label"`
	NextAction         *string                `json:"next_action,omitempty"`
	FollowUpAt         *time.Time             `json:"follow_up_at,omitempty"`
	DoctorReviewStatus *string                `json:"doctor_review_status,omitempty"`
	DoctorReviewNotes  *string                `json:"doctor_review_notes,omitempty"`
	CalBookingID       *string                `json:"cal_booking_id,omitempty"`
	MeetingStart       *time.Time             `json:"meeting_start,omitempty"`
	MeetingEnd         *time.Time             `json:"meeting_end,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	Timeline           []*model.TimelineEvent `json:"timeline"`
}

// PatientView is the portal's progress summary; raw internal fields never
// appear here.
type PatientView struct {
	Ref         string    `json:"ref"`
	StatusLabel string    `json:"status_label"`
	Step        int       `json:"step"`
	TotalSteps  int       `json:"total_steps"`
	Closed      bool      `json:"closed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project is the only path by which a case reaches a caller. The switch is
// exhaustive over the Role set; an unknown role is an error, never a
// fallthrough to a wider view.
func Project(in Input, role model.Role) (interface{}, error) {
	if in.Case == nil {
		return nil, fmt.Errorf("projection requires a case")
	}

	switch role {
	case model.RoleAdmin, model.RoleEmployee:
		return projectStaff(in), nil
	case model.RoleDoctor:
		return projectDoctor(in), nil
	case model.RolePatient:
		return projectPatient(in.Case), nil
	default:
		return nil, fmt.Errorf("no projection defined for role %s", role)
	}
}

func projectStaff(in Input) *StaffView {
	view := &StaffView{
		Case:     in.Case,
		Timeline: in.Timeline,
		Contacts: in.Contacts,
		Notes:    in.Notes,
	}
	if len(in.Contacts) > 0 {
		// Contacts arrive newest-first.
		view.LastContactedAt = &in.Contacts[0].CreatedAt
	}
	return view
}

func projectDoctor(in Input) *DoctorView {
	c := in.Case
	status, _ := model.CaseStatusFromString(c.Status)
	return &DoctorView{
		Ref:                c.Ref,
		Name:               c.Name,
		Treatment:          c.Treatment,
		Message:            c.Message,
		Lang:               c.Lang,
		Status:             c.Status,
		StatusLabel:        status.Label(),
		NextAction:         c.NextAction,
		FollowUpAt:         c.FollowUpAt,
		DoctorReviewStatus: c.DoctorReviewStatus,
		DoctorReviewNotes:  c.DoctorReviewNotes,
		CalBookingID:       c.CalBookingID,
		MeetingStart:       c.MeetingStart,
		MeetingEnd:         c.MeetingEnd,
		CreatedAt:          c.CreatedAt,
		Timeline:           in.Timeline,
	}
}

func projectPatient(c *model.Case) *PatientView {
	status, _ := model.CaseStatusFromString(c.Status)
	step := status.StepIndex()
	closed := status == model.CaseStatusLost
	if step < 0 {
		step = 0
	}
	return &PatientView{
		Ref:         c.Ref,
		StatusLabel: status.Label(),
		Step:        step,
		TotalSteps:  model.TotalSteps(),
		Closed:      closed,
		UpdatedAt:   c.UpdatedAt,
	}
}
