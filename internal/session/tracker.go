// Package session tracks per-user activity and expires idle sessions
// from a background sweep loop. All map access is mutex-guarded; the
// tracker is the only writer of session records besides the caller
// thread.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwarden/internal/audit"
)

const (
	// DefaultTimeout is how long a session survives without activity.
	DefaultTimeout = 15 * time.Minute
	// DefaultSweepInterval is how often the expiry sweep runs.
	DefaultSweepInterval = time.Minute
	// PerUserActivityCap bounds each user's activity log.
	PerUserActivityCap = 100
	// GlobalActivityCap bounds the shared audit-trail log.
	GlobalActivityCap = 500
)

// Record is one user's session state.
type Record struct {
	SessionID     string
	LastActive    time.Time
	Authenticated bool
}

// Activity is one logged action.
type Activity struct {
	User   string
	Action string
	At     time.Time
}

// Auditor records session lifecycle events.
type Auditor interface {
	Record(entry audit.Entry) error
}

// Recorder persists activity entries so reports span restarts.
// Failures are logged and otherwise ignored; persistence never blocks
// the tracker.
type Recorder interface {
	RecordActivity(user, action string, at time.Time) error
}

// Config tunes the tracker. Zero values get defaults.
type Config struct {
	Timeout       time.Duration
	SweepInterval time.Duration
	Logger        *zap.Logger
	Audit         Auditor
	Recorder      Recorder
	// Now overrides the clock. Tests use this.
	Now func() time.Time
}

// Tracker holds the session map and bounded activity logs.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Record
	perUser  map[string][]Activity
	global   []Activity

	timeout  time.Duration
	interval time.Duration
	log      *zap.Logger
	audit    Auditor
	recorder Recorder
	now      func() time.Time
}

// NewTracker creates a Tracker. Run must be started separately.
func NewTracker(cfg Config) *Tracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tracker{
		sessions: make(map[string]*Record),
		perUser:  make(map[string][]Activity),
		timeout:  cfg.Timeout,
		interval: cfg.SweepInterval,
		log:      cfg.Logger,
		audit:    cfg.Audit,
		recorder: cfg.Recorder,
		now:      cfg.Now,
	}
}

// Login creates or refreshes a session and returns its id.
func (t *Tracker) Login(user string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := &Record{
		SessionID:     uuid.NewString(),
		LastActive:    t.now(),
		Authenticated: true,
	}
	t.sessions[user] = rec
	t.appendLocked(user, "login")
	t.record(rec.SessionID, user, "login")
	t.log.Info("session opened", zap.String("user", user))
	return rec.SessionID
}

// Touch marks activity for user and logs the action. Unknown users are
// ignored; activity never resurrects an expired session.
func (t *Tracker) Touch(user, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.sessions[user]
	if !ok {
		return
	}
	rec.LastActive = t.now()
	t.appendLocked(user, action)
}

// Authenticated reports whether user currently holds a live session.
func (t *Tracker) Authenticated(user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.sessions[user]
	return ok && rec.Authenticated
}

// Session returns a copy of the user's record.
func (t *Tracker) Session(user string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.sessions[user]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Logout clears the user's session immediately.
func (t *Tracker) Logout(user string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.sessions[user]
	if !ok {
		return
	}
	delete(t.sessions, user)
	t.appendLocked(user, "logout")
	t.record(rec.SessionID, user, "logout")
	t.log.Info("session closed", zap.String("user", user))
}

// UserActivity returns a copy of the user's bounded activity log.
func (t *Tracker) UserActivity(user string) []Activity {
	t.mu.Lock()
	defer t.mu.Unlock()

	src := t.perUser[user]
	out := make([]Activity, len(src))
	copy(out, src)
	return out
}

// GlobalActivity returns a copy of the shared activity log.
func (t *Tracker) GlobalActivity() []Activity {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Activity, len(t.global))
	copy(out, t.global)
	return out
}

// Run drives the expiry sweep until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Sweep expires every session idle past the timeout. Exposed so tests
// and callers can force a pass without waiting for the ticker.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	expired := 0
	for user, rec := range t.sessions {
		if now.Sub(rec.LastActive) <= t.timeout {
			continue
		}
		delete(t.sessions, user)
		expired++
		t.appendLocked(user, "expired")
		t.record(rec.SessionID, user, "expired")
		t.log.Info("session expired",
			zap.String("user", user),
			zap.Duration("idle", now.Sub(rec.LastActive)))
	}
	return expired
}

// appendLocked pushes an activity entry onto both bounded logs. Caller
// holds the mutex.
func (t *Tracker) appendLocked(user, action string) {
	entry := Activity{User: user, Action: action, At: t.now()}

	log := append(t.perUser[user], entry)
	if len(log) > PerUserActivityCap {
		log = log[len(log)-PerUserActivityCap:]
	}
	t.perUser[user] = log

	t.global = append(t.global, entry)
	if len(t.global) > GlobalActivityCap {
		t.global = t.global[len(t.global)-GlobalActivityCap:]
	}

	if t.recorder != nil {
		if err := t.recorder.RecordActivity(user, action, entry.At); err != nil {
			t.log.Warn("activity not persisted", zap.Error(err))
		}
	}
}

func (t *Tracker) record(sessionID, user, action string) {
	if t.audit == nil {
		return
	}
	err := t.audit.Record(audit.Entry{
		SessionID: sessionID,
		Event:     audit.EventSession,
		Subject:   user,
		Decision:  action,
	})
	if err != nil {
		t.log.Warn("audit write failed", zap.Error(err))
	}
}
