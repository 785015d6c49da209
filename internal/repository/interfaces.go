package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dentavia/case-api/internal/model"
)

type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	Get(ctx context.Context, id uuid.UUID) (*model.Case, error)
	GetByRef(ctx context.Context, ref string) (*model.Case, error)
	List(ctx context.Context, filters *model.CaseFilters) ([]*model.Case, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Case, error)
	Update(ctx context.Context, c *model.Case) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// UpdateReview writes both review fields in one statement.
	UpdateReview(ctx context.Context, id uuid.UUID, status, notes string) error
}

type TimelineRepository interface {
	Create(ctx context.Context, event *model.TimelineEvent) error
	ListByCase(ctx context.Context, caseID uuid.UUID, limit int) ([]*model.TimelineEvent, error)
}

type ContactRepository interface {
	Create(ctx context.Context, event *model.ContactEvent) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.ContactEvent, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.Note, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
}
