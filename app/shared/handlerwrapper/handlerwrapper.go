// Package handlerwrapper adapts typed module handlers to watermill handler
// functions. Handlers receive a decoded payload and return the messages to
// publish as Results; the outgoing topic travels in the "topic" metadata so
// the router can publish to many subjects from one handler.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/tarok-bot/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TopicMetadataKey is the metadata key holding the subject a message should
// be published to.
const TopicMetadataKey = "topic"

// Result is one outgoing message produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// HandlerFunc is the typed handler signature every module handler implements.
type HandlerFunc[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTransformingTyped decodes the JSON payload into a *T, runs handler with
// a context carrying the correlation id and converts the returned Results
// into watermill messages.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler HandlerFunc[T],
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		correlationID := middleware.MessageCorrelationID(msg)
		ctx = attr.WithCorrelationID(ctx, correlationID)

		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.Start(ctx, handlerName, trace.WithAttributes(
				attribute.String("message.id", msg.UUID),
				attribute.String("correlation_id", correlationID),
			))
			defer span.End()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			// A payload that cannot be decoded will never succeed; drop it.
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			return nil, nil
		}

		res, err := handler(ctx, payload)
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			logger.ErrorContext(ctx, "Handler returned error",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			return nil, err
		}

		out := make([]*message.Message, 0, len(res))
		for _, r := range res {
			m, err := newOutgoing(msg, r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", handlerName, err)
			}
			out = append(out, m)
		}
		return out, nil
	}
}

func newOutgoing(parent *message.Message, r Result) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("result has no topic")
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}

	m := message.NewMessage(watermill.NewUUID(), body)
	for k, v := range parent.Metadata {
		m.Metadata.Set(k, v)
	}
	for k, v := range r.Metadata {
		m.Metadata.Set(k, v)
	}
	m.Metadata.Set(TopicMetadataKey, r.Topic)
	if id := middleware.MessageCorrelationID(parent); id != "" {
		middleware.SetCorrelationID(id, m)
	}
	return m, nil
}
