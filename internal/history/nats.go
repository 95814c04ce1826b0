package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig holds the connection and stream settings for the
// completion stream.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
}

// DefaultJetStreamConfig returns the settings used in production.
func DefaultJetStreamConfig(url string) JetStreamConfig {
	return JetStreamConfig{
		URL:           url,
		StreamName:    "DRAFTROOM_COMPLETIONS",
		SubjectPrefix: "draftroom.completions",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxAge:        7 * 24 * time.Hour,
	}
}

// JetStreamSink publishes completion records to a NATS JetStream stream so
// downstream history and analytics consumers can aggregate them.
type JetStreamSink struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

// NewJetStreamSink connects to NATS and ensures the completion stream exists.
func NewJetStreamSink(cfg JetStreamConfig) (*JetStreamSink, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	s := &JetStreamSink{nc: nc, js: js, config: cfg}
	if err := s.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return s, nil
}

func (s *JetStreamSink) ensureStream(ctx context.Context) error {
	_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     s.config.StreamName,
		Subjects: []string{s.config.SubjectPrefix + ".>"},
		MaxAge:   s.config.MaxAge,
		Storage:  jetstream.FileStorage,
	})
	return err
}

// Record publishes the completion to its room-code subject.
func (s *JetStreamSink) Record(ctx context.Context, rec Completion) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", s.config.SubjectPrefix, rec.RoomCode)
	if _, err := s.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}

	log.Debug().Str("subject", subject).Str("room_code", rec.RoomCode).Msg("published completion")
	return nil
}

// Close drains the NATS connection.
func (s *JetStreamSink) Close() {
	s.nc.Close()
}
