package store

import (
	"context"
	"errors"
	"time"

	"github.com/folio-site/folio-backend/types"
	"github.com/prometheus/client_golang/prometheus"
)

var _ FeedbackRepository = (*InstrumentedRepository)(nil)

type repositoryMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// InstrumentedRepository decorates a FeedbackRepository with a per-call
// timeout and Prometheus metrics. It adds no caching or retries.
type InstrumentedRepository struct {
	next    FeedbackRepository
	timeout time.Duration
	metrics *repositoryMetrics
}

// NewInstrumentedRepository wraps next. A zero timeout leaves the caller's
// context untouched.
func NewInstrumentedRepository(next FeedbackRepository, timeout time.Duration, reg prometheus.Registerer) *InstrumentedRepository {
	m := &repositoryMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_store_operation_duration_seconds",
			Help:    "Time taken by feedback store operations",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_store_errors_total",
			Help: "Total number of failed feedback store operations",
		}, []string{"operation", "kind"}),
	}
	reg.MustRegister(m.duration, m.errors)

	return &InstrumentedRepository{next: next, timeout: timeout, metrics: m}
}

func (r *InstrumentedRepository) Create(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	ctx, done := r.begin(ctx, "create")
	created, err := r.next.Create(ctx, fb)
	done(err)
	return created, err
}

func (r *InstrumentedRepository) List(ctx context.Context) ([]types.Feedback, error) {
	ctx, done := r.begin(ctx, "list")
	items, err := r.next.List(ctx)
	done(err)
	return items, err
}

func (r *InstrumentedRepository) Get(ctx context.Context, id string) (*types.Feedback, error) {
	ctx, done := r.begin(ctx, "get")
	fb, err := r.next.Get(ctx, id)
	done(err)
	return fb, err
}

func (r *InstrumentedRepository) Delete(ctx context.Context, id string) error {
	ctx, done := r.begin(ctx, "delete")
	err := r.next.Delete(ctx, id)
	done(err)
	return err
}

// Ping forwards to the wrapped repository when it supports it.
func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	p, ok := r.next.(Pinger)
	if !ok {
		return nil
	}
	ctx, done := r.begin(ctx, "ping")
	err := p.Ping(ctx)
	done(err)
	return err
}

func (r *InstrumentedRepository) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	cancel := func() {}
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}

	return ctx, func(err error) {
		cancel()
		r.metrics.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			r.metrics.errors.WithLabelValues(operation, "not_found").Inc()
		case errors.Is(err, context.DeadlineExceeded):
			r.metrics.errors.WithLabelValues(operation, "timeout").Inc()
		default:
			r.metrics.errors.WithLabelValues(operation, "store").Inc()
		}
	}
}
