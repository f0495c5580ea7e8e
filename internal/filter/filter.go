// Package filter validates and normalizes raw user input before it
// reaches any executor or model provider. Rejections are classified as
// either malformed input or a threat-pattern match; only the pattern
// label is ever logged, never the payload.
package filter

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"chatwarden/internal/audit"
)

// MaxInputLen is the hard ceiling on accepted input, in characters.
const MaxInputLen = 10000

// Kind classifies filter rejections.
type Kind string

const (
	// KindInvalidInput covers oversized, non-printable, or disguised input.
	KindInvalidInput Kind = "invalid_input"
	// KindBlockedPattern marks a threat-pattern match. Security-classified.
	KindBlockedPattern Kind = "blocked_pattern"
)

// Error is a typed filter rejection.
type Error struct {
	Kind   Kind
	Label  string // pattern label for KindBlockedPattern
	Reason string
}

func (e *Error) Error() string {
	if e.Kind == KindBlockedPattern {
		return fmt.Sprintf("input blocked: %s", e.Label)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// IsSecurity reports whether err is a security-classified rejection
// (a threat-pattern match, as opposed to merely malformed input).
func IsSecurity(err error) bool {
	fe, ok := err.(*Error)
	return ok && fe.Kind == KindBlockedPattern
}

// disguiseRunes are bidirectional-override and zero-width code points.
// They can visually hide a payload inside otherwise harmless text, so
// they are blocked unconditionally regardless of surrounding content.
var disguiseRunes = map[rune]bool{
	'\u202a': true, // LEFT-TO-RIGHT EMBEDDING
	'\u202b': true, // RIGHT-TO-LEFT EMBEDDING
	'\u202c': true, // POP DIRECTIONAL FORMATTING
	'\u202d': true, // LEFT-TO-RIGHT OVERRIDE
	'\u202e': true, // RIGHT-TO-LEFT OVERRIDE
	'\u2066': true, // LEFT-TO-RIGHT ISOLATE
	'\u2067': true, // RIGHT-TO-LEFT ISOLATE
	'\u2068': true, // FIRST STRONG ISOLATE
	'\u2069': true, // POP DIRECTIONAL ISOLATE
	'\u200b': true, // ZERO WIDTH SPACE
	'\u200c': true, // ZERO WIDTH NON-JOINER
	'\u200d': true, // ZERO WIDTH JOINER
	'\u2060': true, // WORD JOINER
	'\ufeff': true, // ZERO WIDTH NO-BREAK SPACE
}

// Recorder persists rejection events. Implementations must be safe for
// concurrent use; failures are logged and otherwise ignored so that
// persistence can never block the filter.
type Recorder interface {
	RecordViolation(label string, at time.Time) error
}

// Auditor writes rejections to the audit trail. Only the pattern label
// reaches the trail, never the rejected payload.
type Auditor interface {
	Record(entry audit.Entry) error
}

// Config wires the filter's collaborators.
type Config struct {
	Logger    *zap.Logger
	Threshold int // repeated-violations threshold; 0 means default
	// OnRepeatedViolations fires once, when the violation count reaches
	// the threshold. Intended for external alerting.
	OnRepeatedViolations func(count int)
	Recorder             Recorder
	Audit                Auditor
	// SessionID tags audit entries. Optional.
	SessionID string
}

// Filter runs the validation pipeline. Safe for concurrent use; the
// pattern set can be swapped at runtime via ReplacePatterns.
type Filter struct {
	mu         sync.RWMutex
	set        *Set
	violations *ViolationCounter
	log        *zap.Logger
	onRepeat   func(int)
	recorder   Recorder
	audit      Auditor
	sessionID  string
}

// New creates a Filter over the given pattern set.
func New(set *Set, cfg Config) *Filter {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Filter{
		set:        set,
		violations: NewViolationCounter(cfg.Threshold),
		log:        log,
		onRepeat:   cfg.OnRepeatedViolations,
		recorder:   cfg.Recorder,
		audit:      cfg.Audit,
		sessionID:  cfg.SessionID,
	}
}

// Sanitize validates raw input and returns the normalized form.
// NUL bytes and surrounding whitespace are stripped; anything outside
// printable ASCII plus \n\r\t is rejected, as is any input matching a
// threat pattern. The decision for identical input is identical on every
// call.
func (f *Filter) Sanitize(input string) (string, error) {
	// The ceiling applies to the raw input; trimming must not rescue an
	// oversized string.
	if len(input) > MaxInputLen {
		return "", f.rejectInvalid(fmt.Sprintf("exceeds %d characters", MaxInputLen))
	}

	cleaned := strings.ReplaceAll(input, "\x00", "")
	cleaned = strings.TrimSpace(cleaned)

	if !utf8.ValidString(cleaned) {
		return "", f.rejectInvalid("not valid text")
	}
	for _, r := range cleaned {
		if disguiseRunes[r] {
			return "", f.rejectInvalid(fmt.Sprintf("directionality or zero-width character U+%04X", r))
		}
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if r < 0x20 || r > 0x7e {
			return "", f.rejectInvalid(fmt.Sprintf("non-printable character U+%04X", r))
		}
	}

	f.mu.RLock()
	label := f.set.Match(cleaned)
	f.mu.RUnlock()
	if label != "" {
		return "", f.rejectBlocked(label)
	}

	return cleaned, nil
}

// ReplacePatterns swaps the active pattern set. Used by hot-reload.
func (f *Filter) ReplacePatterns(set *Set) {
	f.mu.Lock()
	f.set = set
	f.mu.Unlock()
	f.log.Info("threat patterns replaced", zap.Int("patterns", set.Len()))
}

// Violations returns the process-lifetime rejection count.
func (f *Filter) Violations() int {
	return f.violations.Count()
}

func (f *Filter) rejectInvalid(reason string) error {
	f.recordViolation("invalid input")
	f.log.Warn("input rejected", zap.String("reason", reason))
	return &Error{Kind: KindInvalidInput, Reason: reason}
}

func (f *Filter) rejectBlocked(label string) error {
	f.recordViolation(label)
	f.log.Warn("input blocked by threat pattern", zap.String("pattern", label))
	return &Error{Kind: KindBlockedPattern, Label: label}
}

func (f *Filter) recordViolation(label string) {
	count, crossed := f.violations.Record()
	if f.recorder != nil {
		if err := f.recorder.RecordViolation(label, time.Now().UTC()); err != nil {
			f.log.Warn("violation not persisted", zap.Error(err))
		}
	}
	if f.audit != nil {
		err := f.audit.Record(audit.Entry{
			SessionID: f.sessionID,
			Event:     audit.EventViolation,
			Subject:   label,
			Decision:  "deny",
		})
		if err != nil {
			f.log.Warn("audit write failed", zap.Error(err))
		}
	}
	if crossed {
		f.log.Error("repeated violations threshold reached",
			zap.Int("count", count),
			zap.Int("threshold", f.violations.Threshold()))
		if f.onRepeat != nil {
			f.onRepeat(count)
		}
	}
}
