package service

import (
	"log/slog"
	"time"

	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
)

const defaultStoreTimeout = 5 * time.Second

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithStoreTimeout bounds every store call made by the service.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}
