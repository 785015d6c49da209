// Package memory holds in-memory repository implementations backing the
// service test suites. Not safe for production use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dentavia/case-api/pkg/errors"

	"github.com/dentavia/case-api/internal/model"
)

type CaseRepository struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*model.Case
}

func NewCaseRepository() *CaseRepository {
	return &CaseRepository{cases: make(map[uuid.UUID]*model.Case)}
}

func (r *CaseRepository) Create(_ context.Context, c *model.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *CaseRepository) Get(_ context.Context, id uuid.UUID) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, apperrors.NotFound("case", nil)
	}
	clone := *c
	return &clone, nil
}

func (r *CaseRepository) GetByRef(_ context.Context, ref string) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.Ref == ref {
			clone := *c
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("case", nil)
}

func (r *CaseRepository) List(_ context.Context, filters *model.CaseFilters) ([]*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Case
	for _, c := range r.cases {
		if filters != nil {
			if filters.Status != "" && c.Status != filters.Status {
				continue
			}
			if filters.Source != "" && c.Source != filters.Source {
				continue
			}
			if filters.SearchTerm != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filters.SearchTerm)) {
				continue
			}
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CaseRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Case
	for _, c := range r.cases {
		if c.DoctorID != nil && *c.DoctorID == doctorID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *CaseRepository) Update(_ context.Context, c *model.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; !ok {
		return apperrors.NotFound("case", nil)
	}
	c.UpdatedAt = time.Now().UTC()
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *CaseRepository) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return apperrors.NotFound("case", nil)
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CaseRepository) UpdateReview(_ context.Context, id uuid.UUID, status, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return apperrors.NotFound("case", nil)
	}
	c.DoctorReviewStatus = &status
	c.DoctorReviewNotes = &notes
	c.UpdatedAt = time.Now().UTC()
	return nil
}

type TimelineRepository struct {
	mu     sync.Mutex
	events []*model.TimelineEvent

	// FailCreate, when set, makes Create return this error.
	FailCreate error
}

func NewTimelineRepository() *TimelineRepository {
	return &TimelineRepository{}
}

func (r *TimelineRepository) Create(_ context.Context, event *model.TimelineEvent) error {
	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *TimelineRepository) ListByCase(_ context.Context, caseID uuid.UUID, limit int) ([]*model.TimelineEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TimelineEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].CaseID == caseID {
			clone := *r.events[i]
			out = append(out, &clone)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *TimelineRepository) All(caseID uuid.UUID) []*model.TimelineEvent {
	events, _ := r.ListByCase(context.Background(), caseID, 0)
	return events
}

type ContactRepository struct {
	mu     sync.Mutex
	events []*model.ContactEvent
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{}
}

func (r *ContactRepository) Create(_ context.Context, event *model.ContactEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *ContactRepository) ListByCase(_ context.Context, caseID uuid.UUID) ([]*model.ContactEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ContactEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].CaseID == caseID {
			clone := *r.events[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

type NoteRepository struct {
	mu    sync.Mutex
	notes []*model.Note
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{}
}

func (r *NoteRepository) Create(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *note
	r.notes = append(r.notes, &clone)
	return nil
}

func (r *NoteRepository) ListByCase(_ context.Context, caseID uuid.UUID) ([]*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Note
	for i := len(r.notes) - 1; i >= 0; i-- {
		if r.notes[i].CaseID == caseID {
			clone := *r.notes[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*model.User)}
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *UserRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	clone := *u
	return &clone, nil
}

type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = string(model.OutboxStatusPending)
	}
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *OutboxRepository) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, e := range r.events {
		if e.Status == string(model.OutboxStatusPending) {
			clone := *e
			out = append(out, &clone)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id uuid.UUID, status string, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errorMessage
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}

func (r *OutboxRepository) Events() []*model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.OutboxEvent, 0, len(r.events))
	for _, e := range r.events {
		clone := *e
		out = append(out, &clone)
	}
	return out
}
