package timeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
)

// Service is the append-only stage history of a case. There is no update or
// delete path anywhere; corrections are new events.
type Service struct {
	repo repository.TimelineRepository
}

func NewService(repo repository.TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Append writes one event. An empty note defaults to the stage's label
// template.
func (s *Service) Append(ctx context.Context, caseID uuid.UUID, stage, note string, payload json.RawMessage) (*model.TimelineEvent, error) {
	if note == "" {
		status, _ := model.CaseStatusFromString(stage)
		note = fmt.Sprintf("Status updated to %s", status.Label())
	}

	event := &model.TimelineEvent{
		ID:      uuid.New(),
		CaseID:  caseID,
		Stage:   stage,
		Note:    note,
		Payload: payload,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append timeline event: %w", err)
	}
	return event, nil
}

// List returns events newest-first, limited by the caller.
func (s *Service) List(ctx context.Context, caseID uuid.UUID, limit int) ([]*model.TimelineEvent, error) {
	events, err := s.repo.ListByCase(ctx, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	return events, nil
}
