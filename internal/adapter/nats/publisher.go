// Package nats publishes screening and execution outcomes to NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

const streamName = "SENTINEL"

// Subjects for published outcomes.
const (
	SubjectScreening = "governance.screening"
	SubjectExecution = "governance.execution"
)

// Publisher emits governance outcomes on NATS JetStream so downstream
// consumers (audit, notification) can react without polling the HTTP API.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"governance.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Publisher{nc: nc, js: js}, nil
}

// PublishScreening emits a screening result.
func (p *Publisher) PublishScreening(ctx context.Context, res *proposal.ScreeningResult) error {
	return p.publish(ctx, SubjectScreening, res)
}

// PublishExecution emits a settled execution attempt.
func (p *Publisher) PublishExecution(ctx context.Context, st *proposal.ExecutionStatus) error {
	return p.publish(ctx, SubjectExecution, st)
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("nats marshal %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
