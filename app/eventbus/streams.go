package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Streams lists the JetStream streams the application publishes into.
var Streams = []jetstream.StreamConfig{
	{Name: "session", Subjects: []string{"session.>"}},
	{Name: "player", Subjects: []string{"player.>"}},
}

// EnsureStreams creates or updates every stream in Streams.
func EnsureStreams(ctx context.Context, conn *nc.Conn, logger *slog.Logger) error {
	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	for _, cfg := range Streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			logger.Error("Failed to provision JetStream stream", attr.String("stream", cfg.Name), attr.Error(err))
			return fmt.Errorf("failed to provision stream %s: %w", cfg.Name, err)
		}
		logger.Info("JetStream stream ready", attr.String("stream", cfg.Name))
	}
	return nil
}
