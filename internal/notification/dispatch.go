// Package notification delivers workflow notifications out-of-band.
//
// Notification records are persisted by the storage layer as part of
// each transition unit; this package handles best-effort delivery to
// configured channels (log, webhook, email) based on routes defined in
// settings/notify.json. Delivery failures never fail the workflow that
// produced the notification.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/visaops/caseflow/internal/types"
)

// Payload is the delivery shape of one workflow notification.
type Payload struct {
	Type        string     `json:"type"` // "case_notification"
	RecipientID string     `json:"recipient_id"`
	Message     string     `json:"message"`
	Link        string     `json:"link,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// RoutesConfig holds the delivery settings from notify.json.
type RoutesConfig struct {
	Type     string              `json:"type"`
	Version  int                 `json:"version"`
	Routes   map[string][]string `json:"routes"`
	Contacts map[string]string   `json:"contacts"`
}

// DispatchResult records the outcome of one channel delivery.
type DispatchResult struct {
	Channel string `json:"channel"` // e.g., "email:hr-lead", "webhook"
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher delivers notifications to configured channels.
type Dispatcher struct {
	config     *RoutesConfig
	httpClient *http.Client
}

// NewDispatcher creates a dispatcher. configDir is the directory
// containing settings/notify.json; a missing or unreadable config is
// not an error, the dispatcher falls back to log-only delivery.
func NewDispatcher(configDir string) *Dispatcher {
	config, err := LoadRoutesConfig(configDir)
	if err != nil {
		config = nil
	}
	return &Dispatcher{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadRoutesConfig loads the delivery configuration from settings/notify.json.
func LoadRoutesConfig(configDir string) (*RoutesConfig, error) {
	configPath := filepath.Join(configDir, "settings", "notify.json")

	data, err := os.ReadFile(configPath) // #nosec G304 - path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to read notify config: %w", err)
	}

	var config RoutesConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse notify config: %w", err)
	}
	return &config, nil
}

// BuildPayload converts a persisted notification record into its
// delivery shape.
func BuildPayload(n *types.Notification) *Payload {
	p := &Payload{
		Type:        "case_notification",
		RecipientID: n.RecipientID,
		Message:     n.Message,
		Link:        n.Link,
	}
	if !n.CreatedAt.IsZero() {
		t := n.CreatedAt
		p.SentAt = &t
	}
	return p
}

// Dispatch sends the notification to every channel of the route.
// routeKey selects the route (e.g., "default", "urgent"); empty uses
// "default".
func (d *Dispatcher) Dispatch(payload *Payload, routeKey string) []DispatchResult {
	if routeKey == "" {
		routeKey = "default"
	}

	routes := d.getRoutes(routeKey)
	if len(routes) == 0 {
		return []DispatchResult{{
			Channel: "none",
			Success: false,
			Error:   "no notification routes configured",
		}}
	}

	var results []DispatchResult
	for _, route := range routes {
		results = append(results, d.dispatchToChannel(payload, route))
	}
	return results
}

// DispatchAll delivers a batch of persisted notifications, one dispatch
// per record. Failures are reported per channel, never returned as an
// error.
func (d *Dispatcher) DispatchAll(notifications []*types.Notification, routeKey string) []DispatchResult {
	var results []DispatchResult
	for _, n := range notifications {
		results = append(results, d.Dispatch(BuildPayload(n), routeKey)...)
	}
	return results
}

// getRoutes returns the channel list for the given route key.
func (d *Dispatcher) getRoutes(routeKey string) []string {
	if d.config == nil || d.config.Routes == nil {
		return []string{"log"}
	}

	routes, ok := d.config.Routes[routeKey]
	if !ok {
		routes, ok = d.config.Routes["default"]
		if !ok {
			return []string{"log"}
		}
	}
	return routes
}

// dispatchToChannel sends a notification to a specific channel.
func (d *Dispatcher) dispatchToChannel(payload *Payload, channel string) DispatchResult {
	result := DispatchResult{Channel: channel}

	switch {
	case channel == "log":
		result.Success = true
		d.logNotification(payload)

	case strings.HasPrefix(channel, "email:"):
		recipient := strings.TrimPrefix(channel, "email:")
		email := d.resolveContact(recipient, "email")
		if email == "" {
			result.Error = fmt.Sprintf("no email configured for %s", recipient)
		} else {
			err := d.sendEmail(payload, email)
			result.Success = err == nil
			if err != nil {
				result.Error = err.Error()
			}
		}

	case channel == "webhook":
		webhookURL := d.resolveContact("case_webhook", "")
		if webhookURL == "" {
			result.Error = "no webhook URL configured"
		} else {
			err := d.sendWebhook(payload, webhookURL)
			result.Success = err == nil
			if err != nil {
				result.Error = err.Error()
			}
		}

	default:
		result.Error = fmt.Sprintf("unknown channel type: %s", channel)
	}

	return result
}

// resolveContact looks up a contact from the configuration.
func (d *Dispatcher) resolveContact(name, contactType string) string {
	if d.config == nil || d.config.Contacts == nil {
		return ""
	}

	// Try the typed key first (e.g., "hr-lead_email" for email:hr-lead)
	if contactType != "" {
		key := fmt.Sprintf("%s_%s", name, contactType)
		if val, ok := d.config.Contacts[key]; ok {
			return val
		}
	}
	if val, ok := d.config.Contacts[name]; ok {
		return val
	}
	return ""
}

// logNotification writes the notification to stdout.
func (d *Dispatcher) logNotification(payload *Payload) {
	fmt.Printf("\n📬 Case Notification\n")
	fmt.Printf("   To: %s\n", payload.RecipientID)
	fmt.Printf("   %s\n", payload.Message)
	if payload.Link != "" {
		fmt.Printf("   Link: %s\n", payload.Link)
	}
	fmt.Println()
}

// sendEmail sends an email notification via the system mail command.
func (d *Dispatcher) sendEmail(payload *Payload, to string) error {
	subject := fmt.Sprintf("[Caseflow] %s", truncate(payload.Message, 60))

	var body strings.Builder
	body.WriteString(payload.Message)
	body.WriteString("\n")
	if payload.Link != "" {
		body.WriteString(fmt.Sprintf("\nView: %s\n", payload.Link))
	}
	body.WriteString(fmt.Sprintf("\nOr use CLI: cf case show %s\n", strings.TrimPrefix(payload.Link, "/case-groups/")))

	cmd := exec.Command("mail", "-s", subject, to)
	cmd.Stdin = strings.NewReader(body.String())

	if err := cmd.Run(); err != nil {
		// Fall back to logging
		fmt.Printf("📧 Email notification (to %s):\n", to)
		fmt.Printf("   Subject: %s\n", subject)
		fmt.Printf("   Body:\n%s\n", body.String())
		return fmt.Errorf("mail command failed (logged instead): %w", err)
	}
	return nil
}

// sendWebhook POSTs the payload as JSON.
func (d *Dispatcher) sendWebhook(payload *Payload, webhookURL string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caseflow-Event", "case_notification")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// truncate shortens a string to the specified length with ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
