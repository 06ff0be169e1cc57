package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/nkiryanov/paysms/internal/logger"
)

type NATSConfig struct {
	URL     string
	Name    string
	Stream  string
	Subject string // prefix, messages go to <Subject>.<target kind>
	MaxAge  time.Duration
}

func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:     url,
		Name:    "paysms",
		Stream:  "PAYSMS_NOTIFICATIONS",
		Subject: "paysms.notify",
		MaxAge:  7 * 24 * time.Hour,
	}
}

// NATSSink publishes messages to a JetStream stream, a separate bot delivers them
type NATSSink struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  logger.Logger
}

// NewNATSSink connects and makes sure the stream exists
func NewNATSSink(ctx context.Context, cfg NATSConfig, l logger.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject + ".>"},
		MaxAge:    cfg.MaxAge,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating/updating stream %s: %w", cfg.Stream, err)
	}

	l.Info("NATS notification sink ready", "url", conn.ConnectedUrl(), "stream", cfg.Stream)

	return &NATSSink{conn: conn, js: js, subject: cfg.Subject, logger: l}, nil
}

func (s *NATSSink) Send(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	subject := s.subject + "." + m.Kind()
	_, err = s.js.Publish(ctx, subject, data, jetstream.WithMsgID(m.ID))
	if err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}

	s.logger.Debug("notification published", "id", m.ID, "subject", subject)
	return nil
}

func (s *NATSSink) JetStream() jetstream.JetStream {
	return s.js
}

func (s *NATSSink) Close() {
	s.conn.Close()
}
