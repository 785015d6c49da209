package review

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentavia/case-api/pkg/errors"
	"github.com/dentavia/case-api/pkg/logger"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository/memory"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/timeline"
)

type fixture struct {
	svc      *Service
	caseRepo *memory.CaseRepository
	caseSvc  *cases.Service
	outbox   *memory.OutboxRepository
	doctorID uuid.UUID
}

func newFixture(t *testing.T) (*fixture, *model.Case) {
	t.Helper()
	caseRepo := memory.NewCaseRepository()
	tlRepo := memory.NewTimelineRepository()
	outbox := memory.NewOutboxRepository()
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	caseSvc := cases.NewService(caseRepo, timeline.NewService(tlRepo), nil, log, nil)
	svc := NewService(caseRepo, caseSvc, timeline.NewService(tlRepo), outbox, log, nil)

	doctorID := uuid.New()
	c, _, err := caseSvc.Create(context.Background(), &model.Case{Name: "Jane Roe"})
	require.NoError(t, err)
	c.DoctorID = &doctorID
	require.NoError(t, caseRepo.Update(context.Background(), c))

	return &fixture{
		svc:      svc,
		caseRepo: caseRepo,
		caseSvc:  caseSvc,
		outbox:   outbox,
		doctorID: doctorID,
	}, c
}

func (f *fixture) doctor() model.Identity {
	return model.Identity{Role: model.RoleDoctor, Subject: f.doctorID}
}

func TestSubmitWritesBothReviewFields(t *testing.T) {
	f, c := newFixture(t)

	result, err := f.svc.Submit(context.Background(), f.doctor(), c.Ref, &model.SubmitReviewRequest{
		Status: string(model.ReviewStatusNeedsInfo),
		Notes:  "need panoramic x-ray",
	})
	require.NoError(t, err)

	stored, err := f.caseRepo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DoctorReviewStatus)
	require.NotNil(t, stored.DoctorReviewNotes)
	assert.Equal(t, string(model.ReviewStatusNeedsInfo), *stored.DoctorReviewStatus)
	assert.Equal(t, "need panoramic x-ray", *stored.DoctorReviewNotes)

	// The review never advances the pipeline itself.
	assert.Equal(t, string(model.CaseStatusNew), stored.Status)
	assert.Empty(t, result.SuggestedNextAction)
}

func TestSubmitApprovalSuggestsBooking(t *testing.T) {
	f, c := newFixture(t)

	result, err := f.svc.Submit(context.Background(), f.doctor(), c.Ref, &model.SubmitReviewRequest{
		Status: string(model.ReviewStatusApprovedForBooking),
	})
	require.NoError(t, err)
	assert.Equal(t, model.NextActionReadyForBooking, result.SuggestedNextAction)

	events := f.outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventReviewSubmitted, events[0].EventType)
}

func TestSubmitRejectsPendingStatus(t *testing.T) {
	f, c := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.doctor(), c.Ref, &model.SubmitReviewRequest{
		Status: string(model.ReviewStatusPending),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestSubmitForbiddenForUnassignedDoctor(t *testing.T) {
	f, c := newFixture(t)

	other := model.Identity{Role: model.RoleDoctor, Subject: uuid.New()}
	_, err := f.svc.Submit(context.Background(), other, c.Ref, &model.SubmitReviewRequest{
		Status: string(model.ReviewStatusRejected),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))

	stored, getErr := f.caseRepo.Get(context.Background(), c.ID)
	require.NoError(t, getErr)
	assert.Nil(t, stored.DoctorReviewStatus)
}

func TestSubmitForbiddenForNonDoctorRole(t *testing.T) {
	f, c := newFixture(t)

	staff := model.Identity{Role: model.RoleEmployee, Subject: f.doctorID}
	_, err := f.svc.Submit(context.Background(), staff, c.Ref, &model.SubmitReviewRequest{
		Status: string(model.ReviewStatusRejected),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestAssignedCaseScopedToOwner(t *testing.T) {
	f, c := newFixture(t)

	got, events, err := f.svc.AssignedCase(context.Background(), f.doctor(), c.Ref)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.NotEmpty(t, events)

	other := model.Identity{Role: model.RoleDoctor, Subject: uuid.New()}
	_, _, err = f.svc.AssignedCase(context.Background(), other, c.Ref)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestListAssigned(t *testing.T) {
	f, c := newFixture(t)

	list, err := f.svc.ListAssigned(context.Background(), f.doctor())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	other := model.Identity{Role: model.RoleDoctor, Subject: uuid.New()}
	list, err = f.svc.ListAssigned(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, list)
}
