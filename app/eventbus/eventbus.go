// Package eventbus connects the application to NATS JetStream through
// watermill. Messages published without an explicit topic are routed by their
// "topic" metadata, which is how handler results reach their subjects.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/Black-And-White-Club/tarok-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// ErrNoTopic is returned when a message is published without a topic and
// carries no topic metadata either.
var ErrNoTopic = errors.New("message has no topic")

// EventBus is the publisher/subscriber pair shared by every module router.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Bus implements EventBus.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	conn       *nc.Conn
	logger     *slog.Logger
	shared     bool // publisher and subscriber are one pub/sub
}

var _ EventBus = (*Bus)(nil)

// Config holds the NATS connection settings.
type Config struct {
	URL        string
	QueueGroup string
}

// NewEventBus connects to NATS, makes sure the application streams exist and
// builds the JetStream-backed publisher and subscriber.
func NewEventBus(ctx context.Context, cfg Config, logger *slog.Logger) (*Bus, error) {
	conn, err := nc.Connect(cfg.URL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1), nc.ReconnectWait(2*time.Second))
	if err != nil {
		logger.Error("Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if err := EnsureStreams(ctx, conn, logger); err != nil {
		conn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	natsOptions := []nc.Option{nc.RetryOnFailedConnect(true)}
	jsConfig := nats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		SubscribeOptions: []nc.SubOpt{
			nc.DeliverNew(),
			nc.AckExplicit(),
		},
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			Marshaler:   marshaler,
			NatsOptions: natsOptions,
			JetStream:   jsConfig,
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		logger.Error("Failed to create Watermill publisher", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	queueGroup := cfg.QueueGroup
	if queueGroup == "" {
		queueGroup = "tarok-bot"
	}
	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.URL,
			Unmarshaler:      marshaler,
			NatsOptions:      natsOptions,
			JetStream:        jsConfig,
			QueueGroupPrefix: queueGroup,
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
		},
		wmLogger,
	)
	if err != nil {
		publisher.Close()
		conn.Close()
		logger.Error("Failed to create Watermill subscriber", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.Info("Event bus connected", attr.String("nats_url", cfg.URL))
	return &Bus{publisher: publisher, subscriber: subscriber, conn: conn, logger: logger}, nil
}

// NewInMemory builds a bus on a watermill Go channel pub/sub. It is used by
// tests and by local runs without NATS.
func NewInMemory(logger *slog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return &Bus{publisher: pubsub, subscriber: pubsub, logger: logger, shared: true}
}

// Publish sends messages to topic. When topic is empty each message goes to
// the subject named in its "topic" metadata.
func (b *Bus) Publish(topic string, messages ...*message.Message) error {
	if topic != "" {
		return b.publisher.Publish(topic, messages...)
	}
	for _, msg := range messages {
		subject := msg.Metadata.Get(handlerwrapper.TopicMetadataKey)
		if subject == "" {
			b.logger.Error("Dropping message without topic", attr.String("message_id", msg.UUID))
			return fmt.Errorf("%w: %s", ErrNoTopic, msg.UUID)
		}
		if err := b.publisher.Publish(subject, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", subject, err)
		}
		b.logger.Debug("Message published",
			attr.String("topic", subject),
			attr.String("message_id", msg.UUID),
			attr.CorrelationIDFromMsg(msg),
		)
	}
	return nil
}

// Subscribe returns the message channel for topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return ch, nil
}

// Close releases the publisher, the subscriber and the NATS connection.
func (b *Bus) Close() error {
	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
	return errors.Join(errs...)
}
