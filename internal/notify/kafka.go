package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"credvault/internal/platform/kafka"
	"credvault/internal/platform/metrics"
	"credvault/pkg/platform/circuit"
	"credvault/pkg/requestcontext"
)

const defaultPublishTimeout = 3 * time.Second

// Producer is the subset of the kafka producer the notifier uses.
type Producer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// KafkaNotifier publishes notices to a topic for an external mailer. While
// the broker is failing the breaker is open and messages go to the fallback.
type KafkaNotifier struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	fallback Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

type KafkaOption func(*KafkaNotifier)

func WithFallback(n Notifier) KafkaOption {
	return func(k *KafkaNotifier) { k.fallback = n }
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(k *KafkaNotifier) { k.breaker = b }
}

func WithMetrics(m *metrics.Metrics) KafkaOption {
	return func(k *KafkaNotifier) { k.metrics = m }
}

func NewKafkaNotifier(producer Producer, topic string, logger *slog.Logger, opts ...KafkaOption) *KafkaNotifier {
	k := &KafkaNotifier{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("notifications-kafka"),
		fallback: Nop{},
		logger:   logger,
		timeout:  defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *KafkaNotifier) Notify(ctx context.Context, msg Message) {
	if !k.breaker.Allow() {
		k.fallback.Notify(ctx, msg)
		return
	}

	value, err := json.Marshal(msg)
	if err != nil {
		k.logger.ErrorContext(ctx, "failed to encode notification", "error", err, "kind", string(msg.Kind))
		return
	}

	// Detached from the request so a client disconnect does not drop the notice.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()
	err = k.producer.Produce(pubCtx, &kafka.Message{
		Topic: k.topic,
		Key:   []byte(msg.To),
		Value: value,
		Headers: map[string]string{
			"kind":       string(msg.Kind),
			"request_id": requestcontext.RequestID(ctx),
		},
	})
	if err != nil {
		if k.metrics != nil {
			k.metrics.IncrementNotificationErrors("kafka")
		}
		if k.breaker.Failure() {
			k.logger.WarnContext(ctx, "notification circuit opened", "breaker", k.breaker.Name())
		}
		k.logger.ErrorContext(ctx, "failed to publish notification",
			"error", err,
			"kind", string(msg.Kind),
			"request_id", requestcontext.RequestID(ctx),
		)
		k.fallback.Notify(ctx, msg)
		return
	}
	if k.breaker.Success() {
		k.logger.InfoContext(ctx, "notification circuit closed", "breaker", k.breaker.Name())
	}
}
