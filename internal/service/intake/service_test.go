package intake

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/case-api/pkg/auth"
	"github.com/dentavia/case-api/pkg/logger"

	"github.com/dentavia/case-api/internal/guard"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository/memory"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/timeline"
)

type fixture struct {
	svc      *Service
	caseRepo *memory.CaseRepository
	timeline *memory.TimelineRepository
	tokens   *auth.Service
}

func newFixture(guardCfg guard.Config) *fixture {
	caseRepo := memory.NewCaseRepository()
	tlRepo := memory.NewTimelineRepository()
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	caseSvc := cases.NewService(caseRepo, timeline.NewService(tlRepo), nil, log, nil)
	tokens := auth.NewService(auth.Config{Secret: "test-secret"})
	svc := NewService(guard.New(guardCfg, log), caseSvc, tokens, nil, log, nil)
	return &fixture{svc: svc, caseRepo: caseRepo, timeline: tlRepo, tokens: tokens}
}

func validRequest() *model.CreateCaseRequest {
	return &model.CreateCaseRequest{
		Name:         "Jane Roe",
		Email:        "jane@example.com",
		Treatment:    "veneers",
		FormOpenTime: time.Now().Add(-time.Minute).UnixMilli(),
		ClientKey:    "client-1",
	}
}

func TestSubmitCreatesCase(t *testing.T) {
	f := newFixture(guard.DefaultConfig())

	result, err := f.svc.Submit(context.Background(), validRequest(), "203.0.113.7")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.NotEmpty(t, result.CaseRef)
	assert.NotEmpty(t, result.PortalToken)

	c, err := f.caseRepo.Get(context.Background(), result.CaseID)
	require.NoError(t, err)
	assert.Equal(t, string(model.CaseStatusNew), c.Status)
	assert.Equal(t, string(model.CaseSourceIntake), c.Source)
	assert.Len(t, f.timeline.All(c.ID), 1)

	// The portal token is pinned to this case.
	claims, err := f.tokens.ValidateToken(result.PortalToken)
	require.NoError(t, err)
	assert.Equal(t, result.CaseRef, claims.CaseRef)
}

func TestSubmitHoneypotCreatesNothing(t *testing.T) {
	f := newFixture(guard.DefaultConfig())

	req := validRequest()
	req.Website = "http://spam.example"
	result, err := f.svc.Submit(context.Background(), req, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, guard.ReasonSpam, result.Reason)

	list, err := f.caseRepo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitTooFastCreatesNothing(t *testing.T) {
	f := newFixture(guard.DefaultConfig())

	req := validRequest()
	req.FormOpenTime = time.Now().Add(-time.Second).UnixMilli()
	result, err := f.svc.Submit(context.Background(), req, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, guard.ReasonTooFast, result.Reason)

	list, err := f.caseRepo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitQuotaBurnsOnlyOnSuccess(t *testing.T) {
	f := newFixture(guard.Config{Window: 10 * time.Minute, MaxPerWindow: 1})

	// A rejected attempt must not consume the client's quota.
	fast := validRequest()
	fast.FormOpenTime = time.Now().UnixMilli()
	result, err := f.svc.Submit(context.Background(), fast, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.OK)

	result, err = f.svc.Submit(context.Background(), validRequest(), "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, result.OK)

	result, err = f.svc.Submit(context.Background(), validRequest(), "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, guard.ReasonRateLimit, result.Reason)
}

func TestSubmitFallsBackToClientIP(t *testing.T) {
	f := newFixture(guard.Config{Window: 10 * time.Minute, MaxPerWindow: 1})

	req := validRequest()
	req.ClientKey = ""
	result, err := f.svc.Submit(context.Background(), req, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, result.OK)

	req = validRequest()
	req.ClientKey = ""
	result, err = f.svc.Submit(context.Background(), req, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, guard.ReasonRateLimit, result.Reason)
}
