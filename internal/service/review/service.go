package review

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/dentavia/case-api/pkg/errors"
	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/timeline"
)

// Result of a review submission. SuggestedNextAction surfaces the staff
// convention for approved cases; nothing is written automatically.
type Result struct {
	Case                *model.Case `json:"case"`
	SuggestedNextAction string      `json:"suggested_next_action,omitempty"`
}

// Service is the doctor-scoped clinical review workflow. It never advances
// the case status; its state lives entirely in the two review fields, always
// written together.
type Service struct {
	repo     repository.CaseRepository
	cases    *cases.Service
	timeline *timeline.Service
	outbox   repository.OutboxRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(repo repository.CaseRepository, caseSvc *cases.Service, tl *timeline.Service, outbox repository.OutboxRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		cases:    caseSvc,
		timeline: tl,
		outbox:   outbox,
		logger:   log,
		metrics:  m,
	}
}

// Submit atomically sets both review fields on a case assigned to the
// calling doctor. Ownership mismatches come back as Forbidden; the HTTP
// boundary renders that as not-found.
func (s *Service) Submit(ctx context.Context, ident model.Identity, caseRef string, req *model.SubmitReviewRequest) (*Result, error) {
	status, known := model.ReviewStatusFromString(req.Status)
	if !known || !status.Submittable() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid review status %q", req.Status), nil)
	}

	c, err := s.ownedCase(ctx, ident, caseRef)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateReview(ctx, c.ID, string(status), req.Notes); err != nil {
		return nil, err
	}
	reviewStatus := string(status)
	c.DoctorReviewStatus = &reviewStatus
	c.DoctorReviewNotes = &req.Notes

	payload, _ := json.Marshal(map[string]string{"doctor_review_status": reviewStatus})
	note := fmt.Sprintf("Doctor review: %s", status.Label())
	if _, err := s.timeline.Append(ctx, c.ID, c.Status, note, payload); err != nil {
		s.logger.Error(err, "failed to append review timeline event",
			"case_id", c.ID.String())
	}

	s.emitOutbox(ctx, c, reviewStatus)
	if s.metrics != nil {
		s.metrics.ReviewsSubmitted.WithLabelValues(reviewStatus).Inc()
	}

	result := &Result{Case: c}
	if status == model.ReviewStatusApprovedForBooking {
		result.SuggestedNextAction = model.NextActionReadyForBooking
	}
	return result, nil
}

// AssignedCase returns the case and its timeline for the calling doctor.
func (s *Service) AssignedCase(ctx context.Context, ident model.Identity, caseRef string) (*model.Case, []*model.TimelineEvent, error) {
	c, err := s.ownedCase(ctx, ident, caseRef)
	if err != nil {
		return nil, nil, err
	}

	events, err := s.timeline.List(ctx, c.ID, 0)
	if err != nil {
		return nil, nil, err
	}
	return c, events, nil
}

// ListAssigned returns all cases assigned to the calling doctor.
func (s *Service) ListAssigned(ctx context.Context, ident model.Identity) ([]*model.Case, error) {
	if ident.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("doctor role required", nil)
	}
	return s.cases.ListByDoctor(ctx, ident.Subject)
}

// ownedCase loads a case by ref and enforces doctor ownership. The forbidden
// branch logs distinctly but callers surface not-found.
func (s *Service) ownedCase(ctx context.Context, ident model.Identity, caseRef string) (*model.Case, error) {
	if ident.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("doctor role required", nil)
	}

	c, err := s.repo.GetByRef(ctx, caseRef)
	if err != nil {
		return nil, err
	}

	if c.DoctorID == nil || *c.DoctorID != ident.Subject {
		s.logger.Warn("doctor requested case not assigned to them",
			"doctor_id", ident.Subject.String(), "case_ref", caseRef)
		return nil, apperrors.Forbidden("case not assigned to caller", nil)
	}
	return c, nil
}

func (s *Service) emitOutbox(ctx context.Context, c *model.Case, reviewStatus string) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"case_id":              c.ID,
		"ref":                  c.Ref,
		"doctor_review_status": reviewStatus,
	})
	if err != nil {
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: model.EventReviewSubmitted,
		Payload:   payload,
	}); err != nil {
		s.logger.Error(err, "failed to create review outbox event",
			"case_id", c.ID.String())
	}
}
