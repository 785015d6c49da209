package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
)

type timelineRepository struct {
	db *sqlx.DB
}

func NewTimelineRepository(db *sqlx.DB) repository.TimelineRepository {
	return &timelineRepository{db: db}
}

func (r *timelineRepository) Create(ctx context.Context, event *model.TimelineEvent) error {
	query := `
		INSERT INTO timeline_events (id, case_id, stage, note, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	event.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.CaseID,
		event.Stage,
		event.Note,
		event.Payload,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append timeline event: %w", err)
	}
	return nil
}

func (r *timelineRepository) ListByCase(ctx context.Context, caseID uuid.UUID, limit int) ([]*model.TimelineEvent, error) {
	query := `SELECT * FROM timeline_events WHERE case_id = $1 ORDER BY created_at DESC`
	args := []interface{}{caseID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var events []*model.TimelineEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	return events, nil
}
