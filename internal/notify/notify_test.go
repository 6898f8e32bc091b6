package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credvault/internal/platform/kafka"
	"credvault/internal/platform/metrics"
	"credvault/pkg/platform/circuit"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Produce(ctx context.Context, msg *kafka.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type recordingNotifier struct {
	messages []Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg Message) {
	r.messages = append(r.messages, msg)
}

var revoked = Message{
	To:      "a@x.com",
	Subject: "Your certificate has been revoked",
	Body:    `Your certificate "B.Tech" issued by "MIT" has been permanently revoked.`,
	Kind:    KindCertificateRevoked,
}

func TestLogNotifierMasksRecipient(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	n.Notify(context.Background(), revoked)

	out := buf.String()
	assert.Contains(t, out, `"kind":"certificate_revoked"`)
	assert.NotContains(t, out, "a@x.com")
	assert.NotContains(t, out, "B.Tech", "body stays out of info logs")
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Multi{a, nil, b}.Notify(context.Background(), revoked)
	assert.Len(t, a.messages, 1)
	assert.Len(t, b.messages, 1)
}

func TestKafkaNotifierPublishes(t *testing.T) {
	producer := new(MockProducer)
	producer.On("Produce", mock.Anything, mock.MatchedBy(func(m *kafka.Message) bool {
		var decoded Message
		if err := json.Unmarshal(m.Value, &decoded); err != nil {
			return false
		}
		return m.Topic == "credvault.notifications" && string(m.Key) == "a@x.com" &&
			m.Headers["kind"] == "certificate_revoked" && decoded == revoked
	})).Return(nil).Once()

	fallback := &recordingNotifier{}
	n := NewKafkaNotifier(producer, "credvault.notifications", slog.New(slog.DiscardHandler), WithFallback(fallback))
	n.Notify(context.Background(), revoked)

	producer.AssertExpectations(t)
	assert.Empty(t, fallback.messages)
}

func TestKafkaNotifierFallsBackAndOpensCircuit(t *testing.T) {
	producer := new(MockProducer)
	producer.On("Produce", mock.Anything, mock.Anything).Return(errors.New("broker down")).Twice()

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	fallback := &recordingNotifier{}
	breaker := circuit.New("test", circuit.WithThreshold(2), circuit.WithCooldown(time.Hour))
	n := NewKafkaNotifier(producer, "t", slog.New(slog.DiscardHandler),
		WithFallback(fallback), WithBreaker(breaker), WithMetrics(m))

	n.Notify(context.Background(), revoked)
	n.Notify(context.Background(), revoked)
	require.Equal(t, circuit.Open, breaker.State())

	// Circuit open: producer is not called again.
	n.Notify(context.Background(), revoked)

	producer.AssertNumberOfCalls(t, "Produce", 2)
	assert.Len(t, fallback.messages, 3)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NotificationErrors.WithLabelValues("kafka")))
}

func TestKafkaNotifierSurvivesCanceledRequest(t *testing.T) {
	producer := new(MockProducer)
	producer.On("Produce", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewKafkaNotifier(producer, "t", slog.New(slog.DiscardHandler)).Notify(ctx, revoked)
	producer.AssertExpectations(t)
}
