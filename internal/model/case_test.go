package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseStatusPipeline(t *testing.T) {
	assert.Equal(t, 0, CaseStatusNew.StepIndex())
	assert.Equal(t, 1, CaseStatusContacted.StepIndex())
	assert.Equal(t, 5, CaseStatusCompleted.StepIndex())
	assert.Equal(t, 6, TotalSteps())

	// Lost sits off the pipeline.
	assert.Equal(t, -1, CaseStatusLost.StepIndex())
	assert.True(t, CaseStatusLost.Known())
}

func TestCaseStatusUnknownPassthrough(t *testing.T) {
	status, known := CaseStatusFromString("escalated")
	assert.False(t, known)
	// Legacy values still render as-is.
	assert.Equal(t, "escalated", status.Label())
	assert.Equal(t, -1, status.StepIndex())
}

func TestCaseStatusLabels(t *testing.T) {
	assert.Equal(t, "Deposit paid", CaseStatusDepositPaid.Label())
	assert.Equal(t, "Appointment set", CaseStatusAppointmentSet.Label())
}

func TestRoleRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleEmployee, RoleDoctor, RolePatient} {
		parsed, err := RoleFromString(role.String())
		assert.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := RoleFromString("superuser")
	assert.Error(t, err)
}

func TestReviewStatusSubmittable(t *testing.T) {
	assert.False(t, ReviewStatusPending.Submittable())
	assert.True(t, ReviewStatusNeedsInfo.Submittable())
	assert.True(t, ReviewStatusApprovedForBooking.Submittable())
	assert.True(t, ReviewStatusRejected.Submittable())
	assert.False(t, ReviewStatus("maybe").Submittable())
}
