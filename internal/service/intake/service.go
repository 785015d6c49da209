package intake

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dentavia/case-api/pkg/auth"
	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/email"
	"github.com/dentavia/case-api/internal/guard"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/service/cases"
)

// Result is the outcome of one intake submission. Rejections carry the
// guard's soft copy; acceptances carry the new case handle and the portal
// token for the patient.
type Result struct {
	OK          bool           `json:"ok"`
	Reason      string         `json:"reason,omitempty"`
	Message     string         `json:"message,omitempty"`
	CaseID      uuid.UUID      `json:"case_id,omitempty"`
	CaseRef     string         `json:"case_ref,omitempty"`
	PortalToken string         `json:"portal_token,omitempty"`
	Warning     *cases.Warning `json:"warning,omitempty"`
}

// Service runs the public intake pipeline: guard, case creation, initial
// timeline event, notification. Guard and validation failures resolve before
// any case exists; later failures never undo the created case.
type Service struct {
	guard    *guard.Guard
	cases    *cases.Service
	tokens   *auth.Service
	notifier email.Notifier
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(g *guard.Guard, caseSvc *cases.Service, tokens *auth.Service, notifier email.Notifier, log *logger.Logger, m *metrics.Metrics) *Service {
	if notifier == nil {
		notifier = email.NewNoopNotifier()
	}
	return &Service{
		guard:    g,
		cases:    caseSvc,
		tokens:   tokens,
		notifier: notifier,
		logger:   log,
		metrics:  m,
	}
}

// Submit processes one public form submission. clientIP backs the rate-limit
// key when the client did not send its own key.
func (s *Service) Submit(ctx context.Context, req *model.CreateCaseRequest, clientIP string) (*Result, error) {
	clientKey := req.ClientKey
	if clientKey == "" {
		clientKey = clientIP
	}

	guardReq := guard.Request{
		Honeypot:  req.Website,
		ClientKey: clientKey,
	}
	if req.FormOpenTime > 0 {
		guardReq.FormOpenedAt = time.UnixMilli(req.FormOpenTime)
	}

	if verdict := s.guard.Check(guardReq); !verdict.Allowed {
		if s.metrics != nil {
			s.metrics.GuardRejections.WithLabelValues(verdict.Reason).Inc()
			s.metrics.IntakeSubmissions.WithLabelValues("rejected").Inc()
		}
		return &Result{OK: false, Reason: verdict.Reason, Message: verdict.Message}, nil
	}

	c := &model.Case{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Treatment:   req.Treatment,
		Message:     req.Message,
		Source:      req.Source,
		Lang:        req.Lang,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Referrer:    req.Referrer,
	}

	created, warning, err := s.cases.Create(ctx, c)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IntakeSubmissions.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	// Only a passing attempt that actually proceeded burns rate-limit quota.
	s.guard.Commit(clientKey)

	token, err := s.tokens.GeneratePortalToken(created.Ref)
	if err != nil {
		s.logger.Error(err, "failed to issue portal token", "case_ref", created.Ref)
	}

	go func(c model.Case) {
		if err := s.notifier.NotifyNewLead(context.Background(), &c); err != nil {
			s.logger.Error(err, "new lead notification failed", "case_ref", c.Ref)
		}
	}(*created)

	if s.metrics != nil {
		s.metrics.IntakeSubmissions.WithLabelValues("accepted").Inc()
	}

	return &Result{
		OK:          true,
		CaseID:      created.ID,
		CaseRef:     created.Ref,
		PortalToken: token,
		Warning:     warning,
	}, nil
}
