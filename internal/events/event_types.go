package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventUserRegistered EventType = "user_registered"
)

// AuditEventTypes lists every event the audit trail records.
var AuditEventTypes = []EventType{EventLoginSucceeded, EventLoginFailed, EventUserRegistered}

// Event represents an audit-relevant fact emitted by services. Payloads never
// carry secrets.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Subject    string            `json:"subject,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
