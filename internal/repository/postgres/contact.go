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

type contactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, event *model.ContactEvent) error {
	query := `
		INSERT INTO contact_events (id, case_id, channel, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	event.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.CaseID,
		event.Channel,
		event.Note,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log contact event: %w", err)
	}
	return nil
}

func (r *contactRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.ContactEvent, error) {
	query := `SELECT * FROM contact_events WHERE case_id = $1 ORDER BY created_at DESC`
	var events []*model.ContactEvent
	if err := r.db.SelectContext(ctx, &events, query, caseID); err != nil {
		return nil, fmt.Errorf("failed to list contact events: %w", err)
	}
	return events, nil
}
