// Package events publishes import lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeline/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// StreamName is the JetStream stream holding import notifications
	StreamName    = "TIMELINE_IMPORTS"
	subjectPrefix = "timeline.imports"
)

// Notifier is told when an import run reaches a terminal state
type Notifier interface {
	ImportFinished(ctx context.Context, status models.ImportStatus)
}

// NoopNotifier discards notifications
type NoopNotifier struct{}

// ImportFinished does nothing
func (NoopNotifier) ImportFinished(context.Context, models.ImportStatus) {}

// publisher is the JetStream publish call, narrowed for tests
type publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSNotifier publishes final import statuses to JetStream
type NATSNotifier struct {
	nc     *nats.Conn
	js     publisher
	logger zerolog.Logger
}

// NewNATSNotifier connects to NATS and makes sure the import stream exists
func NewNATSNotifier(url string, logger zerolog.Logger) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("timeline"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSNotifier{nc: nc, js: js, logger: logger}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	if info, err := js.StreamInfo(StreamName); err == nil && info != nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{subjectPrefix + ".>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     7 * 24 * time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// ImportFinished publishes status on timeline.imports.<account>.<state>.
// Failures are logged and never surface to the import run.
func (n *NATSNotifier) ImportFinished(_ context.Context, status models.ImportStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		n.logger.Error().Err(err).Str("import_id", status.ID).Msg("Failed to encode import notification")
		return
	}

	subject := Subject(status.AccountID, status.Status)
	if _, err := n.js.Publish(subject, payload, nats.MsgId(status.ID+":"+status.Status)); err != nil {
		n.logger.Warn().Err(err).Str("import_id", status.ID).Str("subject", subject).Msg("Failed to publish import notification")
		return
	}

	n.logger.Debug().Str("import_id", status.ID).Str("subject", subject).Msg("Published import notification")
}

// Close closes the NATS connection
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		n.nc.Close()
	}
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// Subject builds the notification subject, escaping NATS token separators and wildcards
func Subject(accountID, state string) string {
	return subjectPrefix + "." + tokenReplacer.Replace(accountID) + "." + tokenReplacer.Replace(state)
}
