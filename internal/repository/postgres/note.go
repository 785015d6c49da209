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

type noteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO case_notes (id, case_id, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	note.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.CaseID,
		note.Note,
		note.CreatedBy,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.Note, error) {
	query := `SELECT * FROM case_notes WHERE case_id = $1 ORDER BY created_at DESC`
	var notes []*model.Note
	if err := r.db.SelectContext(ctx, &notes, query, caseID); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}
