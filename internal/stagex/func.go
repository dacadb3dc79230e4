package stagex

import (
	"context"

	"github.com/ooni/connectx/internal/model"
)

// Func adapts a function to the [model.Stage] interface. The
// resulting stage is always ready.
type Func[In, Out any] func(ctx context.Context, input In) (Out, error)

var _ model.Stage[int, string] = Func[int, string](nil)

// Ready implements model.Stage.
func (fx Func[In, Out]) Ready(ctx context.Context) error {
	return nil
}

// Call implements model.Stage.
func (fx Func[In, Out]) Call(ctx context.Context, input In) (Out, error) {
	return fx(ctx, input)
}

// Run waits for the stage to be ready and then calls it.
func Run[In, Out any](ctx context.Context, stage model.Stage[In, Out], input In) (Out, error) {
	if err := stage.Ready(ctx); err != nil {
		var zero Out
		return zero, err
	}
	return stage.Call(ctx, input)
}
