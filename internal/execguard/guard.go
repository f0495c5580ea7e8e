// Package execguard runs whitelisted, argument-restricted external
// commands with a hard timeout. Every step of the pipeline is a local,
// final decision — nothing is retried, and no process is spawned once
// any prior step fails.
package execguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"chatwarden/internal/audit"
	"chatwarden/internal/filter"
)

const (
	// MaxCommandLen caps the sanitized command string.
	MaxCommandLen = 500
	// MaxOutputLen caps what Execute returns to the caller.
	MaxOutputLen = 1000
	// DefaultTimeout is the hard deadline on the child process.
	DefaultTimeout = 15 * time.Second
)

// DefaultAllowlist is the fixed set of permitted command names.
var DefaultAllowlist = []string{
	"ls", "pwd", "whoami", "date", "echo", "cat",
	"head", "tail", "df", "du", "free", "uname", "id",
}

// fileReadCommands take filesystem paths as arguments and get the extra
// workspace-containment check.
var fileReadCommands = map[string]bool{
	"cat": true, "head": true, "tail": true,
}

// forbiddenArgSubstrings reject an argument outright: shell
// metacharacters, glob wildcards, traversal, and sensitive roots.
var forbiddenArgSubstrings = []string{
	">", "<", "|", ";", "&", "*", "..", "\\",
	"/etc", "/var", "/root",
}

// Kind classifies executor rejections.
type Kind string

const (
	KindTooLong           Kind = "too_long"
	KindNotAllowlisted    Kind = "not_allowlisted"
	KindForbiddenArgument Kind = "forbidden_argument"
	KindPathEscape        Kind = "path_escape"
	KindTimeout           Kind = "timeout"
)

// Error is a typed executor rejection.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("command rejected (%s): %s", e.Kind, e.Reason)
}

// Auditor records executor decisions. Only the command name is ever
// passed in, never arguments.
type Auditor interface {
	Record(entry audit.Entry) error
}

// Config wires the guard's collaborators.
type Config struct {
	Filter    *filter.Filter
	Launcher  Launcher
	Allowlist []string
	// Root is the workspace directory file-reading commands are confined
	// to. Defaults to the current working directory.
	Root    string
	Timeout time.Duration
	Logger  *zap.Logger
	Audit   Auditor
	// SessionID tags audit entries. Optional.
	SessionID string
}

// Guard validates and executes allowlisted commands.
type Guard struct {
	filter    *filter.Filter
	launcher  Launcher
	allowlist map[string]bool
	root      string
	timeout   time.Duration
	log       *zap.Logger
	audit     Auditor
	sessionID string
}

// New creates a Guard. The filter is required; everything else has a
// default.
func New(cfg Config) (*Guard, error) {
	if cfg.Filter == nil {
		return nil, fmt.Errorf("execguard: filter is required")
	}
	if cfg.Launcher == nil {
		cfg.Launcher = NewLauncher()
	}
	if len(cfg.Allowlist) == 0 {
		cfg.Allowlist = DefaultAllowlist
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("execguard: resolve working directory: %w", err)
		}
		cfg.Root = wd
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	allow := make(map[string]bool, len(cfg.Allowlist))
	for _, name := range cfg.Allowlist {
		allow[name] = true
	}

	return &Guard{
		filter:    cfg.Filter,
		launcher:  cfg.Launcher,
		allowlist: allow,
		root:      filepath.Clean(cfg.Root),
		timeout:   cfg.Timeout,
		log:       cfg.Logger,
		audit:     cfg.Audit,
		sessionID: cfg.SessionID,
	}, nil
}

// Execute runs rawCommand through the validation pipeline and, if every
// step passes, spawns the process. Returns captured stdout (stderr when
// stdout is empty), truncated to MaxOutputLen.
func (g *Guard) Execute(ctx context.Context, rawCommand string) (string, error) {
	sanitized, err := g.filter.Sanitize(rawCommand)
	if err != nil {
		// Filter errors propagate unchanged; the filter already logged.
		return "", err
	}

	if len(sanitized) > MaxCommandLen {
		return "", g.reject("", &Error{Kind: KindTooLong,
			Reason: fmt.Sprintf("command exceeds %d characters", MaxCommandLen)})
	}

	tokens, err := shellquote.Split(sanitized)
	if err != nil {
		return "", g.reject("", &Error{Kind: KindForbiddenArgument,
			Reason: fmt.Sprintf("unparseable command: %v", err)})
	}
	if len(tokens) == 0 {
		return "", g.reject("", &Error{Kind: KindNotAllowlisted, Reason: "empty command"})
	}

	name := tokens[0]
	if !g.allowlist[name] {
		return "", g.reject(name, &Error{Kind: KindNotAllowlisted,
			Reason: fmt.Sprintf("command %q is not allowlisted", name)})
	}

	for _, arg := range tokens[1:] {
		if bad := screenArgument(arg); bad != "" {
			return "", g.reject(name, &Error{Kind: KindForbiddenArgument,
				Reason: fmt.Sprintf("argument contains forbidden pattern %q", bad)})
		}
	}

	if fileReadCommands[name] {
		for _, arg := range tokens[1:] {
			if strings.HasPrefix(arg, "-") {
				continue
			}
			if !g.withinRoot(arg) {
				return "", g.reject(name, &Error{Kind: KindPathEscape,
					Reason: "path resolves outside the working directory"})
			}
		}
	}

	stdout, stderr, exitCode, err := g.launcher.Run(ctx, tokens, g.timeout)
	if errors.Is(err, ErrDeadline) {
		return "", g.reject(name, &Error{Kind: KindTimeout,
			Reason: fmt.Sprintf("command exceeded %s", g.timeout)})
	}
	if err != nil {
		g.record(name, "error", err.Error())
		return "", fmt.Errorf("spawn %s: %w", name, err)
	}

	g.record(name, "allow", "")
	g.log.Info("command executed",
		zap.String("command", name),
		zap.Int("exit_code", exitCode))

	output := stdout
	if output == "" {
		output = stderr
	}
	return truncate(output, MaxOutputLen), nil
}

// screenArgument returns the forbidden substring found in arg, or "".
func screenArgument(arg string) string {
	for _, bad := range forbiddenArgSubstrings {
		if strings.Contains(arg, bad) {
			return bad
		}
	}
	return ""
}

// withinRoot reports whether the argument resolves to a descendant of
// the guard's workspace root. Symlinks are resolved on both sides so a
// link inside the root cannot point the read outside it.
func (g *Guard) withinRoot(arg string) bool {
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return false
	}
	root, err := filepath.EvalSymlinks(g.root)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// resolvePath follows symlinks in path. A missing final component is
// tolerated by resolving its parent directory instead, so reads of
// not-yet-existing files inside the root stay allowed.
func resolvePath(path string) (string, error) {
	path = filepath.Clean(path)
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// reject audits and logs a rejection. Only the command name reaches the
// audit trail.
func (g *Guard) reject(name string, e *Error) error {
	g.record(name, "deny", string(e.Kind))
	g.log.Warn("command rejected",
		zap.String("command", name),
		zap.String("kind", string(e.Kind)))
	return e
}

func (g *Guard) record(name, decision, reason string) {
	if g.audit == nil {
		return
	}
	if name == "" {
		name = "(unparsed)"
	}
	err := g.audit.Record(audit.Entry{
		SessionID: g.sessionID,
		Event:     audit.EventExec,
		Subject:   name,
		Decision:  decision,
		Reason:    reason,
	})
	if err != nil {
		g.log.Warn("audit write failed", zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
