package stagex

import (
	"context"
	"time"

	"github.com/ooni/connectx/internal/model"
)

// WithTimeout returns a stage that bounds each Call of the inner stage
// using the given timeout. A zero or negative timeout means no timeout.
func WithTimeout[In, Out any](inner model.Stage[In, Out], timeout time.Duration) model.Stage[In, Out] {
	if timeout <= 0 {
		return inner
	}
	return &timeoutStage[In, Out]{inner: inner, timeout: timeout}
}

type timeoutStage[In, Out any] struct {
	inner   model.Stage[In, Out]
	timeout time.Duration
}

// Ready implements model.Stage.
func (s *timeoutStage[In, Out]) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

// Call implements model.Stage.
func (s *timeoutStage[In, Out]) Call(ctx context.Context, input In) (Out, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Call(ctx, input)
}
