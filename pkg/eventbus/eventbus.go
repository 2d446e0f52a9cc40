// Package eventbus wires Watermill to NATS JetStream and routes outgoing
// messages by the topic stored in their metadata.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// TopicMetadataKey overrides the topic a message is published to.
const TopicMetadataKey = "topic"

// EventBus publishes and subscribes to topics.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// StreamConfig maps a JetStream stream to the subjects it captures.
type StreamConfig struct {
	Name     string
	Subjects []string
}

type natsEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	js         jetstream.JetStream
	logger     *slog.Logger
}

// NewNATSEventBus connects to NATS, provisions streams and returns an EventBus
// backed by Watermill's JetStream publisher and subscriber.
func NewNATSEventBus(ctx context.Context, natsURL, durablePrefix string, streams []StreamConfig, logger *slog.Logger) (EventBus, error) {
	natsConn, err := nc.Connect(natsURL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := EnsureStreams(ctx, js, streams, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	jsConfig := wmnats.JetStreamConfig{
		AutoProvision: false,
		TrackMsgId:    true,
		DurablePrefix: durablePrefix,
		DurableCalculator: func(prefix, topic string) string {
			return durableName(prefix, topic)
		},
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: []nc.Option{nc.RetryOnFailedConnect(true)},
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              natsURL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      []nc.Option{nc.RetryOnFailedConnect(true)},
		Unmarshaler:      marshaler,
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	return &natsEventBus{
		publisher:  NewTopicRoutingPublisher(publisher),
		subscriber: subscriber,
		natsConn:   natsConn,
		js:         js,
		logger:     logger,
	}, nil
}

// EnsureStreams creates or updates every stream in streams.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, streams []StreamConfig, logger *slog.Logger) error {
	for _, s := range streams {
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      s.Name,
			Subjects:  s.Subjects,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    24 * time.Hour,
		})
		if err != nil {
			return fmt.Errorf("failed to provision stream %s: %w", s.Name, err)
		}
		logger.Info("JetStream stream ready",
			attr.String("stream", s.Name),
			attr.Any("subjects", s.Subjects),
		)
	}
	return nil
}

func (eb *natsEventBus) Publish(topic string, msgs ...*message.Message) error {
	return eb.publisher.Publish(topic, msgs...)
}

func (eb *natsEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return eb.subscriber.Subscribe(ctx, topic)
}

// Close closes the publisher, subscriber and connection, returning every
// error encountered.
func (eb *natsEventBus) Close() error {
	var errs []error
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if eb.subscriber != nil {
		if err := eb.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if eb.natsConn != nil {
		eb.natsConn.Close()
	}
	return errors.Join(errs...)
}

// durableName builds a JetStream consumer name; consumer names may not
// contain dots or wildcards.
func durableName(prefix, topic string) string {
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	name := r.Replace(topic)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// TopicRoutingPublisher publishes each message to the topic named in its
// metadata, falling back to the topic passed to Publish.
type TopicRoutingPublisher struct {
	next message.Publisher
}

func NewTopicRoutingPublisher(next message.Publisher) *TopicRoutingPublisher {
	return &TopicRoutingPublisher{next: next}
}

func (p *TopicRoutingPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		target := topic
		if t := msg.Metadata.Get(TopicMetadataKey); t != "" {
			target = t
		}
		if target == "" {
			return fmt.Errorf("message %s has no topic", msg.UUID)
		}
		if err := p.next.Publish(target, msg); err != nil {
			return fmt.Errorf("publish to %s: %w", target, err)
		}
	}
	return nil
}

func (p *TopicRoutingPublisher) Close() error {
	return p.next.Close()
}
