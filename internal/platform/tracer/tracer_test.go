package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"credvault/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, "certificate.issue", tracer.String("issuer", "MIT"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Bool("legacy", false))
	span.AddEvent("stored", tracer.Int("count", 1))
	span.End(errors.New("boom"))
}

func TestOTelTracerWithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel("credvault/test", tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), "share.create", tracer.String("certificate_id", "abc"))
	require.NotNil(t, ctx)
	span.SetAttributes(tracer.Int("shares", 2), tracer.Bool("expired", false))
	span.AddEvent("persisted")
	span.End(nil)
}
