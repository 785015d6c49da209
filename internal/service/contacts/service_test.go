package contacts

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/case-api/pkg/logger"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository/memory"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/timeline"
)

type fixture struct {
	svc    *Service
	c      *model.Case
	tlRepo *memory.TimelineRepository
	outbox *memory.OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	caseRepo := memory.NewCaseRepository()
	tlRepo := memory.NewTimelineRepository()
	outbox := memory.NewOutboxRepository()
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	caseSvc := cases.NewService(caseRepo, timeline.NewService(tlRepo), nil, log, nil)
	svc := NewService(memory.NewContactRepository(), caseSvc, outbox, log, nil)

	c, _, err := caseSvc.Create(context.Background(), &model.Case{Name: "Jane Roe"})
	require.NoError(t, err)
	return &fixture{svc: svc, c: c, tlRepo: tlRepo, outbox: outbox}
}

func TestLogPromotesNewToContacted(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Log(context.Background(), f.c.ID, &model.LogContactRequest{
		Channel: "whatsapp",
		Note:    "sent intro message",
	})
	require.NoError(t, err)
	assert.True(t, result.StatusChanged)
	assert.Equal(t, string(model.CaseStatusContacted), result.Status)
	assert.Equal(t, "whatsapp", result.Event.Channel)

	// Creation event plus the promotion event.
	events := f.tlRepo.All(f.c.ID)
	require.Len(t, events, 2)
	assert.Equal(t, string(model.CaseStatusContacted), events[0].Stage)
}

func TestLogEmitsOutboxEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Log(context.Background(), f.c.ID, &model.LogContactRequest{Channel: "phone"})
	require.NoError(t, err)

	events := f.outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventContactLogged, events[0].EventType)
	assert.Contains(t, string(events[0].Payload), "phone")
}

func TestLogSecondAttemptDoesNotMoveStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Log(context.Background(), f.c.ID, &model.LogContactRequest{Channel: "phone"})
	require.NoError(t, err)

	result, err := f.svc.Log(context.Background(), f.c.ID, &model.LogContactRequest{Channel: "email"})
	require.NoError(t, err)
	assert.False(t, result.StatusChanged)
	assert.Equal(t, string(model.CaseStatusContacted), result.Status)

	// The second attempt is stored but appends no stage event.
	assert.Len(t, f.tlRepo.All(f.c.ID), 2)

	attempts, err := f.svc.List(context.Background(), f.c.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestLogRejectsUnknownChannel(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Log(context.Background(), f.c.ID, &model.LogContactRequest{Channel: "carrier_pigeon"})
	assert.Error(t, err)

	attempts, err := f.svc.List(context.Background(), f.c.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
