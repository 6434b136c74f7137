package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EventPublisher emits engine events for external collaborators (LMS
// notifiers, peer work distribution). Publishing is best-effort: a failed
// publish is logged and never fails the originating request.
type EventPublisher interface {
	Publish(subject string, payload interface{})
}

type engineEvent struct {
	Source  string      `json:"source"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	nodeID string
	logger zerolog.Logger
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// disables publishing entirely.
func NewEventPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		prefix: prefix,
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	event := engineEvent{
		Source:  p.nodeID,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode engine event")
		return
	}

	full := fmt.Sprintf("%s.%s", p.prefix, subject)
	if err := p.conn.Publish(full, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", full).Msg("failed to publish engine event")
	}
}

// NopPublisher discards all events. Used in tests and when NATS is not
// configured.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(string, interface{}) {}
