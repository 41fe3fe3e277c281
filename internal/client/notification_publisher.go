// Package client holds outbound integrations; currently the NATS
// notification publisher.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NotificationPublisher publishes approval workflow events to NATS for the
// notifications service.
//
// Subject convention: notifications.acct.<event_type>
// Event types: document_submitted, document_approved, cascade_completed,
//              document_marked_paid
//
// All publish operations are non-fatal: errors are logged but never
// propagated, so notification failures never interrupt approval operations.
// A nil connection disables publishing entirely.
type NotificationPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType    string         `json:"event_type"`
	DocumentType string         `json:"document_type"`
	DocumentID   int64          `json:"document_id"`
	ActorUserID  *int64         `json:"actor_user_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given connection.
func NewNotificationPublisher(conn *nats.Conn, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{conn: conn, log: log}
}

// PublishDocumentEvent publishes one approval event.
func (p *NotificationPublisher) PublishDocumentEvent(eventType, documentType string, documentID int64, actorUserID *int64, payload map[string]any) {
	if p == nil || p.conn == nil {
		return
	}

	event := &NotificationEvent{
		EventType:    eventType,
		DocumentType: documentType,
		DocumentID:   documentID,
		ActorUserID:  actorUserID,
		Payload:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.acct.%s", eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Int64("document_id", documentID).
			Msg("notification: failed to publish event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("document_type", documentType).
		Int64("document_id", documentID).
		Msg("notification: event published")
}
