package audit

// Event is the kind of audited occurrence.
type Event string

const (
	// EventExec is a command-executor invocation. Subject carries the
	// command name only — arguments are never written to the log.
	EventExec Event = "exec"
	// EventDispatch is a provider dispatch attempt.
	EventDispatch Event = "dispatch"
	// EventViolation is an input-filter rejection. Subject carries the
	// pattern label, never the raw payload.
	EventViolation Event = "violation"
	// EventSession is a session lifecycle change (login, expiry).
	EventSession Event = "session"
)

// Entry is one line in the hash-chained JSONL audit log.
// All fields are scalars to guarantee deterministic json.Marshal field
// order for reproducible hashing.
type Entry struct {
	Timestamp string `json:"ts"`
	SessionID string `json:"session_id,omitempty"`
	Event     Event  `json:"event"`
	Subject   string `json:"subject"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	PrevHash  string `json:"prev_hash"`
}
