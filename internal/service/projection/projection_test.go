package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/case-api/internal/model"
)

func sampleInput() Input {
	doctorID := uuid.New()
	reviewStatus := string(model.ReviewStatusNeedsInfo)
	c := &model.Case{
		ID:                 uuid.New(),
		Ref:                "a1b2c3d4e5f6a7b8",
		Name:               "Jane Roe",
		Email:              "jane@example.com",
		Phone:              "+44 20 7946 0123",
		Treatment:          "implants",
		Status:             string(model.CaseStatusContacted),
		DoctorID:           &doctorID,
		DoctorReviewStatus: &reviewStatus,
		UTMSource:          "google",
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	return Input{
		Case: c,
		Timeline: []*model.TimelineEvent{
			{ID: uuid.New(), CaseID: c.ID, Stage: string(model.CaseStatusContacted)},
		},
		Contacts: []*model.ContactEvent{
			{ID: uuid.New(), CaseID: c.ID, Channel: "phone", Note: "left voicemail", CreatedAt: time.Now()},
		},
		Notes: []*model.Note{
			{ID: uuid.New(), CaseID: c.ID, Note: "negotiating discount"},
		},
	}
}

func TestProjectStaffSeesEverything(t *testing.T) {
	in := sampleInput()
	for _, role := range []model.Role{model.RoleAdmin, model.RoleEmployee} {
		view, err := Project(in, role)
		require.NoError(t, err)
		staff, ok := view.(*StaffView)
		require.True(t, ok)
		assert.Equal(t, in.Case.Email, staff.Case.Email)
		assert.Len(t, staff.Notes, 1)
		assert.Len(t, staff.Contacts, 1)
		require.NotNil(t, staff.LastContactedAt)
	}
}

func TestProjectDoctorOmitsContactDetailsAndNotes(t *testing.T) {
	in := sampleInput()
	view, err := Project(in, model.RoleDoctor)
	require.NoError(t, err)

	doctor, ok := view.(*DoctorView)
	require.True(t, ok)
	assert.Equal(t, in.Case.Ref, doctor.Ref)
	assert.Equal(t, in.Case.Treatment, doctor.Treatment)
	assert.Len(t, doctor.Timeline, 1)

	// The serialized view must carry no trace of contact details, internal
	// notes or marketing attribution.
	raw, err := json.Marshal(doctor)
	require.NoError(t, err)
	payload := string(raw)
	assert.NotContains(t, payload, "jane@example.com")
	assert.NotContains(t, payload, "7946 0123")
	assert.NotContains(t, payload, "negotiating discount")
	assert.NotContains(t, payload, "left voicemail")
	assert.NotContains(t, payload, "utm")
}

func TestProjectPatientProgressOnly(t *testing.T) {
	in := sampleInput()
	view, err := Project(in, model.RolePatient)
	require.NoError(t, err)

	patient, ok := view.(*PatientView)
	require.True(t, ok)
	assert.Equal(t, in.Case.Ref, patient.Ref)
	assert.Equal(t, "Contacted", patient.StatusLabel)
	assert.Equal(t, 1, patient.Step)
	assert.Equal(t, model.TotalSteps(), patient.TotalSteps)
	assert.False(t, patient.Closed)
}

func TestProjectPatientLostCaseIsClosed(t *testing.T) {
	in := sampleInput()
	in.Case.Status = string(model.CaseStatusLost)

	view, err := Project(in, model.RolePatient)
	require.NoError(t, err)
	patient := view.(*PatientView)
	assert.True(t, patient.Closed)
	assert.Equal(t, 0, patient.Step)
}

func TestProjectUnknownRoleErrors(t *testing.T) {
	in := sampleInput()
	_, err := Project(in, model.Role(99))
	assert.Error(t, err)
}

func TestProjectNilCaseErrors(t *testing.T) {
	_, err := Project(Input{}, model.RoleAdmin)
	assert.Error(t, err)
}
