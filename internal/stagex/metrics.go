package stagex

//
// Metrics definitions
//

import (
	"context"
	"errors"
	"time"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the collectors used by [WithMetrics]. The zero value
// is invalid; use [NewMetrics] to construct.
type Metrics struct {
	// calls counts the calls by stage and result.
	calls *prometheus.CounterVec

	// duration observes the duration of calls by stage.
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connectx_stage_calls_total",
			Help: "Total number of stage calls by stage and result",
		}, []string{"stage", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connectx_stage_call_duration_seconds",
			Help:    "Time to complete a stage call (in seconds)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ResultLabel returns the result label for err. We use the failure of
// an [*netxlite.ErrWrapper] and "error" for other errors, so that the
// number of label values stays bounded.
func ResultLabel(err error) string {
	var ew *netxlite.ErrWrapper
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ew) && !ew.IsUnknownFailure():
		return ew.Failure
	default:
		return "error"
	}
}

// WithMetrics returns a stage that records the outcome and the duration
// of each Call of the inner stage under the given stage name.
func WithMetrics[In, Out any](inner model.Stage[In, Out], m *Metrics, name string) model.Stage[In, Out] {
	return &metricsStage[In, Out]{inner: inner, m: m, name: name}
}

type metricsStage[In, Out any] struct {
	inner model.Stage[In, Out]
	m     *Metrics
	name  string
}

// Ready implements model.Stage.
func (s *metricsStage[In, Out]) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

// Call implements model.Stage.
func (s *metricsStage[In, Out]) Call(ctx context.Context, input In) (Out, error) {
	t0 := time.Now()
	out, err := s.inner.Call(ctx, input)
	s.m.duration.WithLabelValues(s.name).Observe(time.Since(t0).Seconds())
	s.m.calls.WithLabelValues(s.name, ResultLabel(err)).Inc()
	return out, err
}
