// Package notify announces finished runs on a NATS JetStream subject.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
)

const publishTimeout = 5 * time.Second

// RunEvent is the message published once per finished run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Command    string    `json:"command"`
	Repository string    `json:"repository"`
	Site       string    `json:"site"`
	Status     string    `json:"status"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Deleted    int       `json:"deleted"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// publisher is the part of jetstream.JetStream the notifier uses.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Notifier publishes RunEvents.
type Notifier struct {
	conn    *nats.Conn
	js      publisher
	subject string
	logger  *slog.Logger
}

// Connect dials the NATS server named in cfg.
func Connect(cfg config.NotifyConfig, logger *slog.Logger) (*Notifier, error) {
	if cfg.NATSURL == "" {
		return nil, errors.ConfigError("notify.nats_url is required").Build()
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("docpublisher"))
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.InternalError("failed to create JetStream context").WithCause(err).Build()
	}

	n := newNotifier(js, cfg.Subject, logger)
	n.conn = conn
	n.logger.Info("Run notifications enabled", logfields.URL(cfg.NATSURL), slog.String("subject", n.subject))
	return n, nil
}

func newNotifier(js publisher, subject string, logger *slog.Logger) *Notifier {
	if subject == "" {
		subject = config.DefaultNotifySubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{js: js, subject: subject, logger: logger}
}

// Notify publishes ev. A zero Timestamp is set to now.
func (n *Notifier) Notify(ctx context.Context, ev RunEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.InternalError("failed to marshal run event").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := n.js.Publish(ctx, n.subject, data, jetstream.WithMsgID(ev.RunID)); err != nil {
		return errors.NetworkError("failed to publish run event").
			WithCause(err).
			WithContext("subject", n.subject).
			Build()
	}

	n.logger.Debug("Published run event", logfields.RunID(ev.RunID), slog.String("subject", n.subject))
	return nil
}

// Close drains the connection.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
