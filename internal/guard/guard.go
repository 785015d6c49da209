package guard

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/dentavia/case-api/pkg/logger"
)

// Rejection reasons.
const (
	ReasonSpam      = "spam"
	ReasonTooFast   = "too_fast"
	ReasonRateLimit = "rate_limit"
)

// User-facing copy. The honeypot message deliberately looks like a success so
// bots learn nothing from the response.
const (
	msgSpam      = "Thanks, we received your request."
	msgTooFast   = "Please take a moment to check your details, then submit again."
	msgRateLimit = "You have reached the submission limit. Please try again in a few minutes."
)

type Config struct {
	MinFillTime  time.Duration
	Window       time.Duration
	MaxPerWindow int
}

func DefaultConfig() Config {
	return Config{
		MinFillTime:  2500 * time.Millisecond,
		Window:       10 * time.Minute,
		MaxPerWindow: 3,
	}
}

// Request is one submission attempt as seen by the guard.
type Request struct {
	// Honeypot is the value of the hidden form field; non-empty means bot.
	Honeypot string
	// FormOpenedAt is the client timestamp captured at form mount. Zero means
	// the client never reported one, which fails the fill-time check: a direct
	// POST that omits the field must not sail past the timing gate.
	FormOpenedAt time.Time
	// ClientKey identifies the submitting client for rate limiting.
	ClientKey string
}

type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Guard runs the anti-spam checks gating the intake pipeline. Checks run in
// order and the first failure short-circuits. The rate-limit counter is only
// advanced by Commit, so attempts rejected by an earlier check do not burn
// the caller's quota.
type Guard struct {
	cfg    Config
	store  *cache.Cache
	logger *logger.Logger
	now    func() time.Time
}

func New(cfg Config, log *logger.Logger) *Guard {
	if cfg.MinFillTime <= 0 {
		cfg.MinFillTime = DefaultConfig().MinFillTime
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.MaxPerWindow <= 0 {
		cfg.MaxPerWindow = DefaultConfig().MaxPerWindow
	}
	return &Guard{
		cfg:    cfg,
		store:  cache.New(cfg.Window, 2*cfg.Window),
		logger: log,
		now:    time.Now,
	}
}

func (g *Guard) Check(req Request) Result {
	if req.Honeypot != "" {
		g.logger.Warn("honeypot field populated, rejecting submission",
			"client_key", req.ClientKey)
		return Result{Allowed: false, Reason: ReasonSpam, Message: msgSpam}
	}

	if req.FormOpenedAt.IsZero() || g.now().Sub(req.FormOpenedAt) < g.cfg.MinFillTime {
		return Result{Allowed: false, Reason: ReasonTooFast, Message: msgTooFast}
	}

	if len(g.recentAttempts(req.ClientKey)) >= g.cfg.MaxPerWindow {
		return Result{Allowed: false, Reason: ReasonRateLimit, Message: msgRateLimit}
	}

	return Result{Allowed: true}
}

// Commit records a submission that passed all checks and proceeded to the
// pipeline. Counter failures never block submission.
func (g *Guard) Commit(clientKey string) {
	if clientKey == "" {
		return
	}
	attempts := append(g.recentAttempts(clientKey), g.now())
	g.store.Set(clientKey, attempts, cache.DefaultExpiration)
}

// recentAttempts returns the attempts inside the window, pruning the rest.
func (g *Guard) recentAttempts(clientKey string) []time.Time {
	if clientKey == "" {
		return nil
	}

	raw, found := g.store.Get(clientKey)
	if !found {
		return nil
	}
	attempts, ok := raw.([]time.Time)
	if !ok {
		// Corrupt entry; fail open.
		g.store.Delete(clientKey)
		return nil
	}

	cutoff := g.now().Add(-g.cfg.Window)
	var valid []time.Time
	for _, t := range attempts {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
