// Package gate implements admission control for playlist creation requests.
//
// A [Gate] combines a fixed-window request counter per subject key with a payload size check.
// Counters live in a [Store]: [MemoryStore] for a single process, or the sqlite-backed store in
// the repositories package when several instances share one database.
//
// Policy, evaluated once per request:
//  1. no entry: create one with count 1 and a reset time one window out; admit
//  2. window expired: reset count to 1 and push the reset time one window out; admit
//  3. count already at the maximum: reject without incrementing
//  4. otherwise: increment and admit
package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// AnonymousKey is the subject key used when the caller has no verified identity.
const AnonymousKey = "anonymous"

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	Count   int       // requests counted in the current window, including this one when allowed
	Limit   int       // maximum requests per window
	ResetAt time.Time // when the current window ends
}

// Remaining returns how many more requests the current window admits.
func (d Decision) Remaining() int {
	return max(d.Limit-d.Count, 0)
}

// Limiter admits or rejects requests for a subject key.
type Limiter interface {
	Admit(ctx context.Context, subjectKey string) (Decision, error)
}

// UpdateFunc receives the current entry (nil when none exists) and returns the entry to store.
type UpdateFunc func(current *models.RateLimitEntry) models.RateLimitEntry

// Store persists rate limit entries.
//
// Update must run fn and persist its result atomically with respect to other Update calls for
// the same key.
type Store interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Prune removes entries whose window ended before the given time.
	Prune(ctx context.Context, before time.Time) (int, error)
}

// Policy holds the admission limits.
type Policy struct {
	MaxRequests int
	Window      time.Duration
	MaxSongs    int
	Now         func() time.Time
}

// DefaultPolicy admits 3 requests per 24 hours and at most 20 songs per request.
func DefaultPolicy() Policy {
	return Policy{MaxRequests: 3, Window: 24 * time.Hour, MaxSongs: 20}
}

// PolicyFromConfig builds a [Policy] from [shared.GateConfig], keeping defaults for unset values.
func PolicyFromConfig(cfg shared.GateConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxRequests > 0 {
		p.MaxRequests = cfg.MaxRequests
	}
	if cfg.Window > 0 {
		p.Window = cfg.Window
	}
	if cfg.MaxSongs > 0 {
		p.MaxSongs = cfg.MaxSongs
	}
	return p
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// next applies the policy to the current entry.
func (p Policy) next(key string, current *models.RateLimitEntry, now time.Time) (models.RateLimitEntry, Decision) {
	switch {
	case current == nil || now.After(current.WindowResetAt):
		entry := models.RateLimitEntry{SubjectKey: key, Count: 1, WindowResetAt: now.Add(p.Window)}
		return entry, Decision{Allowed: true, Count: 1, Limit: p.MaxRequests, ResetAt: entry.WindowResetAt}
	case current.Count >= p.MaxRequests:
		return *current, Decision{Allowed: false, Count: current.Count, Limit: p.MaxRequests, ResetAt: current.WindowResetAt}
	default:
		entry := *current
		entry.Count++
		return entry, Decision{Allowed: true, Count: entry.Count, Limit: p.MaxRequests, ResetAt: entry.WindowResetAt}
	}
}

// RejectMessage is the user-facing message for a rejected request.
func (p Policy) RejectMessage() string {
	period := "day"
	if p.Window != 24*time.Hour {
		period = p.Window.String()
	}
	return fmt.Sprintf("Rate limit exceeded. You can create up to %d playlists per %s.", p.MaxRequests, period)
}

// SizeMessage is the user-facing message for an oversized request.
func (p Policy) SizeMessage() string {
	return fmt.Sprintf("Playlist is too large. Maximum %d songs allowed.", p.MaxSongs)
}

// Gate applies a [Policy] over a [Store].
type Gate struct {
	store  Store
	policy Policy
	logger *log.Logger
}

var _ Limiter = (*Gate)(nil)

// New creates a [Gate]. A nil logger logs to stderr.
func New(store Store, policy Policy, logger *log.Logger) *Gate {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Gate{store: store, policy: policy, logger: shared.WithLogger(logger, "component", "gate")}
}

// Policy returns the limits the gate enforces.
func (g *Gate) Policy() Policy { return g.policy }

// Admit counts a request for subjectKey and reports whether it may proceed.
//
// A rejected request is not counted. The error is non-nil only when the store fails.
func (g *Gate) Admit(ctx context.Context, subjectKey string) (Decision, error) {
	if subjectKey == "" {
		subjectKey = AnonymousKey
	}

	now := g.policy.now()
	var decision Decision
	err := g.store.Update(ctx, subjectKey, func(current *models.RateLimitEntry) models.RateLimitEntry {
		var entry models.RateLimitEntry
		entry, decision = g.policy.next(subjectKey, current, now)
		return entry
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to update rate limit for %q: %w", subjectKey, err)
	}

	if !decision.Allowed {
		g.logger.Warn("request rejected", "subject", subjectKey, "count", decision.Count, "reset_at", decision.ResetAt)
	} else {
		g.logger.Debug("request admitted", "subject", subjectKey, "count", decision.Count, "remaining", decision.Remaining())
	}
	return decision, nil
}

// CheckSize rejects song lists longer than the policy allows.
func (g *Gate) CheckSize(n int) error {
	if n > g.policy.MaxSongs {
		return fmt.Errorf("%w: %d songs, maximum %d", shared.ErrPayloadTooLarge, n, g.policy.MaxSongs)
	}
	return nil
}

// Prune drops entries whose window has ended.
func (g *Gate) Prune(ctx context.Context) (int, error) {
	return g.store.Prune(ctx, g.policy.now())
}

// SubjectKey returns the caller's email, or [AnonymousKey] when there is none.
func SubjectKey(session *models.Session) string {
	if session == nil {
		return AnonymousKey
	}
	if email := strings.ToLower(strings.TrimSpace(session.Email)); email != "" {
		return email
	}
	return AnonymousKey
}
