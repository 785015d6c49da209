package cases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/dentavia/case-api/pkg/errors"
	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
	"github.com/dentavia/case-api/internal/service/timeline"
)

// Warning is a non-fatal diagnostic attached to an otherwise successful
// write: the status changed but its timeline entry failed to append. The
// correlation id lets support trace the gap.
type Warning struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Service owns the case record and its status state machine. Every status
// change, manual or automatic, appends exactly one timeline event before the
// write is reported complete; append failures degrade to a Warning instead of
// rolling back the status.
type Service struct {
	repo     repository.CaseRepository
	timeline *timeline.Service
	outbox   repository.OutboxRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(repo repository.CaseRepository, tl *timeline.Service, outbox repository.OutboxRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		timeline: tl,
		outbox:   outbox,
		logger:   log,
		metrics:  m,
	}
}

// Create persists a new case. Status is always new on creation, whatever the
// caller set; source defaults to intake when unknown.
func (s *Service) Create(ctx context.Context, c *model.Case) (*model.Case, *Warning, error) {
	if c.Name == "" && c.Email == "" && c.Phone == "" {
		return nil, nil, apperrors.BadRequest("at least one contact field is required", nil)
	}
	if !model.CaseSource(c.Source).Known() {
		c.Source = string(model.CaseSourceIntake)
	}

	c.ID = uuid.New()
	c.Ref = newCaseRef()
	c.Status = string(model.CaseStatusNew)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("failed to create case: %w", err)
	}

	warning := s.appendStageEvent(ctx, c.ID, c.Status, "Case created", nil)
	s.emitOutbox(ctx, model.EventCaseCreated, c)
	s.countStatusChange(c.Status)

	return c, warning, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByRef(ctx context.Context, ref string) (*model.Case, error) {
	return s.repo.GetByRef(ctx, ref)
}

func (s *Service) List(ctx context.Context, filters *model.CaseFilters) ([]*model.Case, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Case, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// UpdateStatus moves the case to any canonical stage. Staff overrides may
// skip intermediate stages; only non-canonical values are refused.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status, note string) (*model.Case, *Warning, error) {
	parsed, known := model.CaseStatusFromString(status)
	if !known {
		return nil, nil, apperrors.BadRequest(fmt.Sprintf("unknown status %q", status), nil)
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if c.Status == string(parsed) {
		return c, nil, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, string(parsed)); err != nil {
		return nil, nil, err
	}
	c.Status = string(parsed)

	warning := s.appendStageEvent(ctx, id, c.Status, note, nil)
	s.emitOutbox(ctx, model.EventCaseStatusChanged, map[string]interface{}{
		"case_id": c.ID,
		"ref":     c.Ref,
		"status":  c.Status,
	})
	s.countStatusChange(c.Status)

	return c, warning, nil
}

// PromoteOnContact bumps new cases to contacted when an outbound contact is
// recorded. Idempotent: cases already past new are left alone.
func (s *Service) PromoteOnContact(ctx context.Context, c *model.Case, channel string) (bool, *Warning, error) {
	if c.Status != string(model.CaseStatusNew) {
		return false, nil, nil
	}

	note := fmt.Sprintf("First contact attempt via %s", channel)
	updated, warning, err := s.UpdateStatus(ctx, c.ID, string(model.CaseStatusContacted), note)
	if err != nil {
		return false, nil, err
	}
	c.Status = updated.Status
	return true, warning, nil
}

// Patch applies a staff partial update. Scalar fields are last-write-wins;
// a status change goes through the state machine so its timeline entry is
// emitted like every other one.
func (s *Service) Patch(ctx context.Context, ident model.Identity, id uuid.UUID, req *model.UpdateCaseRequest) (*model.Case, *Warning, error) {
	if !ident.IsStaff() {
		return nil, nil, apperrors.Forbidden("only staff may edit cases", nil)
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if req.NextAction != nil {
		c.NextAction = req.NextAction
	}
	if req.FollowUpAt != nil {
		c.FollowUpAt = req.FollowUpAt
	}
	if req.DoctorID != nil {
		c.DoctorID = req.DoctorID
	}
	if req.DoctorReviewStatus != nil {
		if rs, known := model.ReviewStatusFromString(*req.DoctorReviewStatus); !known {
			return nil, nil, apperrors.BadRequest(fmt.Sprintf("unknown review status %q", string(rs)), nil)
		}
		c.DoctorReviewStatus = req.DoctorReviewStatus
	}
	if req.DoctorReviewNotes != nil {
		c.DoctorReviewNotes = req.DoctorReviewNotes
	}
	if req.CalBookingID != nil {
		c.CalBookingID = req.CalBookingID
	}
	if req.MeetingStart != nil {
		c.MeetingStart = req.MeetingStart
	}
	if req.MeetingEnd != nil {
		c.MeetingEnd = req.MeetingEnd
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, nil, err
	}

	var warning *Warning
	if req.Status != nil && *req.Status != c.Status {
		note := ""
		if req.StatusNote != nil {
			note = *req.StatusNote
		}
		c, warning, err = s.UpdateStatus(ctx, id, *req.Status, note)
		if err != nil {
			return nil, nil, err
		}
	}

	return c, warning, nil
}

// AppendEvent appends a staff timeline entry and, when asked and the stage is
// canonical, also moves the case status.
func (s *Service) AppendEvent(ctx context.Context, caseID uuid.UUID, req *model.AppendTimelineRequest) (*model.TimelineEvent, *model.Case, *Warning, error) {
	c, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, nil, nil, err
	}

	note := ""
	if req.Note != nil {
		note = *req.Note
	}

	var warning *Warning
	if _, known := model.CaseStatusFromString(req.Stage); known && req.UpdateStatus && c.Status != req.Stage {
		// The status write emits the stage event itself.
		c, warning, err = s.UpdateStatus(ctx, caseID, req.Stage, note)
		if err != nil {
			return nil, nil, nil, err
		}
		if warning != nil {
			// The stage event never made it in; reporting the previous
			// newest event here would pass it off as the new one.
			return nil, c, warning, nil
		}
		events, listErr := s.timeline.List(ctx, caseID, 1)
		if listErr == nil && len(events) > 0 {
			return events[0], c, warning, nil
		}
		return nil, c, warning, nil
	}

	event, err := s.timeline.Append(ctx, caseID, req.Stage, note, req.Payload)
	if err != nil {
		return nil, nil, nil, err
	}
	return event, c, nil, nil
}

// Timeline exposes the read side of the stage history.
func (s *Service) Timeline(ctx context.Context, caseID uuid.UUID, limit int) ([]*model.TimelineEvent, error) {
	return s.timeline.List(ctx, caseID, limit)
}

// appendStageEvent appends the mandatory stage event. Failures are logged,
// counted and degraded to a Warning so the status write itself stands.
func (s *Service) appendStageEvent(ctx context.Context, caseID uuid.UUID, stage, note string, payload json.RawMessage) *Warning {
	if _, err := s.timeline.Append(ctx, caseID, stage, note, payload); err != nil {
		correlationID := requestIDFromContext(ctx)
		s.logger.Error(err, "timeline append failed after status write",
			"case_id", caseID.String(), "stage", stage, "correlation_id", correlationID)
		if s.metrics != nil {
			s.metrics.TimelineAppendFailures.Inc()
		}
		return &Warning{
			Message:       apperrors.PartialWrite(correlationID, err).Message,
			CorrelationID: correlationID,
		}
	}
	return nil
}

func (s *Service) emitOutbox(ctx context.Context, eventType string, payload interface{}) {
	if s.outbox == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", eventType)
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		s.logger.Error(err, "failed to create outbox event", "event_type", eventType)
	}
}

func (s *Service) countStatusChange(stage string) {
	if s.metrics != nil {
		s.metrics.CaseStatusChanges.WithLabelValues(stage).Inc()
	}
}

// requestIDFromContext pulls the correlation id the request middleware put on
// the context, if any.
func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value("request_id").(string); ok {
		return id
	}
	return ""
}

// newCaseRef builds the opaque public reference used in portal URLs and
// doctor-facing routes.
func newCaseRef() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}
