package contacts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/dentavia/case-api/pkg/errors"
	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
	"github.com/dentavia/case-api/internal/service/cases"
)

// LogResult carries the updated case status alongside the stored event so
// callers can refresh their view without a second read.
type LogResult struct {
	Event         *model.ContactEvent `json:"event"`
	Status        string              `json:"status"`
	StatusChanged bool                `json:"status_changed"`
	Warning       *cases.Warning      `json:"warning,omitempty"`
}

// Service is the append-only record of outbound contact attempts.
type Service struct {
	repo    repository.ContactRepository
	cases   *cases.Service
	outbox  repository.OutboxRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.ContactRepository, caseSvc *cases.Service, outbox repository.OutboxRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cases:   caseSvc,
		outbox:  outbox,
		logger:  log,
		metrics: m,
	}
}

// Log persists a contact attempt and bumps the case from new to contacted on
// the first one. Further attempts leave the status alone.
func (s *Service) Log(ctx context.Context, caseID uuid.UUID, req *model.LogContactRequest) (*LogResult, error) {
	channel, known := model.ContactChannelFromString(req.Channel)
	if !known {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown contact channel %q", req.Channel), nil)
	}

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	event := &model.ContactEvent{
		ID:      uuid.New(),
		CaseID:  caseID,
		Channel: string(channel),
		Note:    req.Note,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to log contact: %w", err)
	}

	changed, warning, err := s.cases.PromoteOnContact(ctx, c, string(channel))
	if err != nil {
		return nil, err
	}

	s.emitOutbox(ctx, c, event)

	if s.metrics != nil {
		s.metrics.ContactEventsLogged.WithLabelValues(string(channel)).Inc()
	}

	return &LogResult{
		Event:         event,
		Status:        c.Status,
		StatusChanged: changed,
		Warning:       warning,
	}, nil
}

func (s *Service) emitOutbox(ctx context.Context, c *model.Case, event *model.ContactEvent) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"case_id": c.ID,
		"ref":     c.Ref,
		"channel": event.Channel,
	})
	if err != nil {
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: model.EventContactLogged,
		Payload:   payload,
	}); err != nil {
		s.logger.Error(err, "failed to create contact outbox event",
			"case_id", c.ID.String())
	}
}

// List returns contact attempts newest-first.
func (s *Service) List(ctx context.Context, caseID uuid.UUID) ([]*model.ContactEvent, error) {
	return s.repo.ListByCase(ctx, caseID)
}
