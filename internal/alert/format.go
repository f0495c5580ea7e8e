package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("chatwarden: %s", event.Type),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*User:* %s", event.User)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Label:* %s", event.Label)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Count:* %d", event.Count)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "warning"
	if event.Type == "repeated_violations" {
		severity = "critical"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("chatwarden %s: %s", event.Type, event.Label),
			"severity": severity,
			"source":   "chatwarden",
			"custom_details": map[string]any{
				"user":       event.User,
				"session_id": event.SessionID,
				"label":      event.Label,
				"count":      event.Count,
				"reason":     event.Reason,
			},
		},
	}
	return json.Marshal(payload)
}
