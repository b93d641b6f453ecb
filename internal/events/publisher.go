package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelBus creates the in-process pub/sub that delivers change
// events to the propagation handlers.
func NewGoChannelBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logger)
}

// NewKafkaPublisher creates the publisher used to forward events to
// external consumers (notification service and friends).
func NewKafkaPublisher(brokers []string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, nil
}

// watermillPublisher publishes every event to the in-process bus and, when
// configured, forwards it to kafka. The forward leg is best-effort: a kafka
// failure is logged, never propagated.
type watermillPublisher struct {
	local   message.Publisher
	forward message.Publisher
	logger  *slog.Logger
}

func NewPublisher(local message.Publisher, forward message.Publisher, logger *slog.Logger) EventPublisher {
	return &watermillPublisher{
		local:   local,
		forward: forward,
		logger:  logger,
	}
}

func (p *watermillPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)

	if err := p.local.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, topic, err)
	}

	if p.forward != nil {
		fwd := message.NewMessage(event.ID, payload)
		fwd.Metadata.Set("event_type", event.Type)
		if err := p.forward.Publish(topic, fwd); err != nil {
			p.logger.ErrorContext(ctx, "failed to forward event to kafka",
				"topic", topic,
				"event_type", event.Type,
				"error", err)
		}
	}

	return nil
}

func (p *watermillPublisher) Close() error {
	var firstErr error
	if err := p.local.Close(); err != nil {
		firstErr = err
	}
	if p.forward != nil {
		if err := p.forward.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DecodeMessage unmarshals a watermill message back into an Event.
func DecodeMessage(msg *message.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event message %s: %w", msg.UUID, err)
	}
	return &event, nil
}
