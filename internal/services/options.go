package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/fardapack/fardapack-crm/internal/observability"
	"github.com/fardapack/fardapack-crm/internal/reliability/retry"
)

// runtime carries the collaborators shared by every service
type runtime struct {
	log     *zap.Logger
	retrier *retry.Retrier
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures a service
type Option func(*runtime)

// WithLogger sets the service logger
func WithLogger(log *zap.Logger) Option {
	return func(r *runtime) { r.log = log }
}

// WithRetrier retries writes that hit a busy store
func WithRetrier(retrier *retry.Retrier) Option {
	return func(r *runtime) { r.retrier = retrier }
}

// WithMetrics records service counters
func WithMetrics(m *observability.Metrics) Option {
	return func(r *runtime) { r.metrics = m }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(r *runtime) { r.now = now }
}

func newRuntime(opts []Option) runtime {
	r := runtime{
		log:     zap.NewNop(),
		metrics: observability.NewMetrics(nil),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
