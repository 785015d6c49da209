package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dentavia/case-api/pkg/logger"
)

// User-facing copy for terminal outcomes. Timeouts get their own message so
// the UI can suggest reaching out on a direct channel instead.
const (
	msgTimedOut = "The request timed out. Your details are saved; you can also reach us directly on WhatsApp."
	msgFailed   = "Something went wrong sending your request. Please try again."
)

// Payload is the intake submission body.
type Payload struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Treatment string `json:"treatment,omitempty"`
	Message   string `json:"message,omitempty"`
	Source    string `json:"source"`
	Lang      string `json:"lang,omitempty"`

	Website      string `json:"website"`
	FormOpenTime int64  `json:"form_open_time,omitempty"`
	ClientKey    string `json:"client_key,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// SubmitResult is terminal: the transport never retries beyond its budget and
// never queues.
type SubmitResult struct {
	Success     bool
	TimedOut    bool
	CaseID      string
	CaseRef     string
	PortalToken string
	Message     string
	Err         error
}

type serverResponse struct {
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	CaseID      string `json:"case_id,omitempty"`
	CaseRef     string `json:"case_ref,omitempty"`
	PortalToken string `json:"portal_token,omitempty"`
}

type Config struct {
	Endpoint string
	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration
	// Retries is the number of re-attempts after the first try. Nil means
	// the default of 1; an explicit zero disables retries.
	Retries *int
}

// Hook observes terminal results. Hooks run in their own goroutines and can
// neither block nor change the outcome.
type Hook func(SubmitResult)

// Client delivers intake payloads with bounded resilience: one durable local
// write up front, a small retry budget with linear backoff, and a distinct
// timeout outcome.
type Client struct {
	cfg        Config
	httpClient *http.Client
	fallback   *FallbackStore
	logger     *logger.Logger
	hooks      []Hook
}

func NewClient(cfg Config, fallback *FallbackStore, log *logger.Logger, hooks ...Hook) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries == nil {
		one := 1
		cfg.Retries = &one
	} else if *cfg.Retries < 0 {
		zero := 0
		cfg.Retries = &zero
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		fallback:   fallback,
		logger:     log,
		hooks:      hooks,
	}
}

// Submit delivers one payload. The local fallback write happens before any
// network attempt and survives every transport outcome.
func (c *Client) Submit(ctx context.Context, payload *Payload) SubmitResult {
	submissionID := uuid.New().String()

	if c.fallback != nil {
		if err := c.fallback.Append(Record{
			SubmissionID: submissionID,
			Payload:      payload,
			Meta:         Meta{SavedTo: SavedToLocal},
		}); err != nil {
			c.logger.Error(err, "fallback write failed; continuing with submission")
		}
	}

	result := c.deliver(ctx, payload)

	if result.Success && c.fallback != nil {
		if err := c.fallback.Append(Record{
			SubmissionID: submissionID,
			Payload:      payload,
			Meta:         Meta{SavedTo: SavedToRemote, CaseRef: result.CaseRef},
		}); err != nil {
			c.logger.Error(err, "fallback remote tag failed", "case_ref", result.CaseRef)
		}
	}

	for _, hook := range c.hooks {
		go hook(result)
	}
	return result
}

func (c *Client) deliver(ctx context.Context, payload *Payload) SubmitResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{Message: msgFailed, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	attempts := *c.cfg.Retries + 1
	var lastErr error
	var timedOut bool

	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := c.attempt(ctx, body)
		if err == nil {
			return res
		}
		lastErr = err
		timedOut = isTimeout(err)

		if ctx.Err() != nil {
			// Caller cancelled; no point in another attempt.
			break
		}

		if attempt < attempts && !timedOut {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("intake attempt failed, backing off",
				"attempt", attempt, "backoff", backoff.String(), "error", err.Error())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
		}
	}

	msg := msgFailed
	if timedOut {
		msg = msgTimedOut
	}
	return SubmitResult{TimedOut: timedOut, Message: msg, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, body []byte) (SubmitResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return SubmitResult{}, fmt.Errorf("intake endpoint returned %d", resp.StatusCode)
	}

	var sr serverResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if !sr.OK {
		// A guard rejection is terminal, not retryable.
		msg := sr.Message
		if msg == "" {
			msg = msgFailed
		}
		return SubmitResult{Message: msg, Err: fmt.Errorf("submission rejected: %s", sr.Reason)}, nil
	}

	return SubmitResult{
		Success:     true,
		CaseID:      sr.CaseID,
		CaseRef:     sr.CaseRef,
		PortalToken: sr.PortalToken,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
