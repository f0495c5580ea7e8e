// Package alert posts security events to webhook endpoints. The chat
// loop keeps running whether or not a webhook is reachable; alerting is
// fire-and-forget.
package alert

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["repeated_violations", "blocked_pattern", "command_denied"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	User      string `json:"user"`
	Type      string `json:"type"`  // "repeated_violations", "blocked_pattern", "command_denied"
	Label     string `json:"label"` // threat pattern label or rejection kind
	Count     int    `json:"count,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
