package filter

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternEntry is the raw form of a threat pattern as it appears in the
// patterns YAML file.
type PatternEntry struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

// ThreatPattern is a compiled case-insensitive pattern with a
// human-readable label. Labels are what end up in logs; raw payloads
// never do.
type ThreatPattern struct {
	Label string
	re    *regexp.Regexp
}

// Set holds compiled threat patterns. Read-only after construction;
// hot-reload swaps the whole Set.
type Set struct {
	patterns []ThreatPattern
}

// DefaultPatterns are the built-in threat patterns. They target shell
// metacharacter chains, script-injection markers, and dangerous call
// forms. The matching is heuristic, not exhaustive.
var DefaultPatterns = []PatternEntry{
	{Label: "privilege escalation", Pattern: `\bsudo\b|\bsu\s+-\b|\bdoas\b`},
	{Label: "recursive delete", Pattern: `\brm\s+-[a-z]*[rf][a-z]*[rf]`},
	{Label: "pipe to shell", Pattern: `\|\s*(sh|bash|zsh|fish|dash)\b`},
	{Label: "remote download", Pattern: `\b(curl|wget)\b\s+\S*(https?|ftp)://`},
	{Label: "device redirection", Pattern: `>+\s*/dev/`},
	{Label: "filesystem format", Pattern: `\bmkfs(\.\w+)?\b|\bdd\s+if=`},
	{Label: "fork bomb", Pattern: `:\(\)\s*\{\s*:\|:&\s*\}`},
	{Label: "script injection", Pattern: `<script\b|javascript:|\bonerror\s*=`},
	{Label: "dynamic evaluation", Pattern: `\beval\s*\(|\bexec\s*\(`},
	{Label: "encoded payload", Pattern: `base64_decode|b64decode|gzinflate`},
	{Label: "sql injection", Pattern: `union\s+select|drop\s+table|;\s*--`},
}

// NewSet compiles pattern entries into a Set. Matching is always
// case-insensitive. An entry that fails to compile is an error — a
// silently dropped threat pattern is worse than a startup failure.
func NewSet(entries []PatternEntry) (*Set, error) {
	s := &Set{patterns: make([]ThreatPattern, 0, len(entries))}
	for _, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("threat pattern %q has no label", e.Pattern)
		}
		re, err := regexp.Compile("(?i)" + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile threat pattern %q: %w", e.Label, err)
		}
		s.patterns = append(s.patterns, ThreatPattern{Label: e.Label, re: re})
	}
	return s, nil
}

// DefaultSet compiles the built-in patterns. Panics only if the built-in
// table itself is broken, which is a programming error.
func DefaultSet() *Set {
	s, err := NewSet(DefaultPatterns)
	if err != nil {
		panic(err)
	}
	return s
}

// patternFile is the YAML layout of an external patterns file.
type patternFile struct {
	Patterns []PatternEntry `yaml:"patterns"`
}

// LoadSet reads threat patterns from a YAML file. A missing file falls
// back to the built-in defaults; a malformed file is an error.
func LoadSet(path string) (*Set, error) {
	if path == "" {
		return DefaultSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSet(), nil
		}
		return nil, err
	}

	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse patterns file: %w", err)
	}
	if len(pf.Patterns) == 0 {
		return DefaultSet(), nil
	}
	return NewSet(pf.Patterns)
}

// Match returns the label of the first pattern that matches, or "" when
// nothing matches.
func (s *Set) Match(text string) string {
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			return p.Label
		}
	}
	return ""
}

// Len returns the number of compiled patterns.
func (s *Set) Len() int {
	return len(s.patterns)
}
