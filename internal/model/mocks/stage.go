package mocks

import (
	"context"

	"github.com/ooni/connectx/internal/model"
)

// Stage is a mockable model.Stage.
type Stage[In, Out any] struct {
	MockReady func(ctx context.Context) error
	MockCall  func(ctx context.Context, input In) (Out, error)
}

var _ model.Stage[int, string] = &Stage[int, string]{}

// Ready calls MockReady.
func (s *Stage[In, Out]) Ready(ctx context.Context) error {
	return s.MockReady(ctx)
}

// Call calls MockCall.
func (s *Stage[In, Out]) Call(ctx context.Context, input In) (Out, error) {
	return s.MockCall(ctx, input)
}
