// internal/adapter/events/publisher.go

// Package events publishes pipeline lifecycle events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"trendscout/internal/service/analysis"
)

// Publisher announces completed analysis runs on a NATS subject
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher creates an event publisher
func NewPublisher(conn *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}
}

// AnalysisCompleted publishes the completion event as JSON
func (p *Publisher) AnalysisCompleted(_ context.Context, event analysis.CompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling completion event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("error publishing completion event: %w", err)
	}

	p.logger.Debug("published completion event", "subject", p.subject, "username", event.Handle)
	return nil
}
