package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/dentavia/case-api/pkg/errors"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
)

type caseRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) error {
	query := `
		INSERT INTO cases (
			id, ref, name, email, phone, treatment, message, source, lang,
			status, next_action, follow_up_at, doctor_id,
			doctor_review_status, doctor_review_notes,
			cal_booking_id, meeting_start, meeting_end,
			utm_source, utm_medium, utm_campaign, referrer,
			created_at, updated_at
		) VALUES (
			:id, :ref, :name, :email, :phone, :treatment, :message, :source, :lang,
			:status, :next_action, :follow_up_at, :doctor_id,
			:doctor_review_status, :doctor_review_notes,
			:cal_booking_id, :meeting_start, :meeting_end,
			:utm_source, :utm_medium, :utm_campaign, :referrer,
			:created_at, :updated_at
		)
	`
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *caseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	query := `SELECT * FROM cases WHERE id = $1`
	var c model.Case
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("case", err)
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (r *caseRepository) GetByRef(ctx context.Context, ref string) (*model.Case, error) {
	query := `SELECT * FROM cases WHERE ref = $1`
	var c model.Case
	if err := r.db.GetContext(ctx, &c, query, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("case", err)
		}
		return nil, fmt.Errorf("failed to get case by ref: %w", err)
	}
	return &c, nil
}

func (r *caseRepository) List(ctx context.Context, filters *model.CaseFilters) ([]*model.Case, error) {
	query := `SELECT * FROM cases WHERE 1=1`
	args := []interface{}{}
	i := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", i)
			args = append(args, filters.Status)
			i++
		}
		if filters.Source != "" {
			query += fmt.Sprintf(" AND source = $%d", i)
			args = append(args, filters.Source)
			i++
		}
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", i)
			args = append(args, *filters.DoctorID)
			i++
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", i, i, i)
			args = append(args, "%"+filters.SearchTerm+"%")
			i++
		}
	}

	query += " ORDER BY created_at DESC"

	if filters != nil && filters.PageSize > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, filters.PageSize, (page-1)*filters.PageSize)
	}

	var cases []*model.Case
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Case, error) {
	query := `SELECT * FROM cases WHERE doctor_id = $1 ORDER BY created_at DESC`
	var cases []*model.Case
	if err := r.db.SelectContext(ctx, &cases, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor cases: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) error {
	query := `
		UPDATE cases SET
			name = :name, email = :email, phone = :phone,
			treatment = :treatment, message = :message, lang = :lang,
			status = :status, next_action = :next_action, follow_up_at = :follow_up_at,
			doctor_id = :doctor_id,
			doctor_review_status = :doctor_review_status,
			doctor_review_notes = :doctor_review_notes,
			cal_booking_id = :cal_booking_id,
			meeting_start = :meeting_start, meeting_end = :meeting_end,
			updated_at = :updated_at
		WHERE id = :id
	`
	c.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE cases SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update case status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("case", nil)
	}
	return nil
}

func (r *caseRepository) UpdateReview(ctx context.Context, id uuid.UUID, status, notes string) error {
	query := `
		UPDATE cases
		SET doctor_review_status = $1, doctor_review_notes = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, status, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("case", nil)
	}
	return nil
}
