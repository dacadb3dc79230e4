package stagex

//
// Async execution
//

import (
	"context"
	"errors"
	"io"

	"github.com/ooni/connectx/internal/erroror"
	"github.com/ooni/connectx/internal/model"
	"golang.org/x/sync/errgroup"
)

// Parallelism is the number of goroutines that [Map] uses.
type Parallelism int

// Go runs the stage in a background goroutine and returns a channel
// where the result is posted. A reader already waiting on the channel
// always gets the result. Otherwise, if the context is done before
// someone reads the result, we close the output, if closable, and we
// close the channel without posting, so readers must check ok.
func Go[In, Out any](ctx context.Context, stage model.Stage[In, Out], input In) <-chan *erroror.Value[Out] {
	out := make(chan *erroror.Value[Out])
	go func() {
		defer close(out)
		value, err := Run(ctx, stage, input)
		result := &erroror.Value[Out]{Err: err, Value: value}
		select {
		case out <- result:
			return
		default:
		}
		select {
		case out <- result:
		case <-ctx.Done():
			if err == nil {
				maybeClose(value)
			}
		}
	}()
	return out
}

// ErrNoInputs indicates that [First] was called without inputs.
var ErrNoInputs = errors.New("stagex: no inputs")

// First runs the stage for every input concurrently and returns the
// first successful output. Once there is a winner, we cancel the other
// calls and close their outputs, if closable. When every call fails,
// First returns the error of the call that failed first.
func First[In, Out any](ctx context.Context, stage model.Stage[In, Out], inputs ...In) (Out, error) {
	var zero Out
	if len(inputs) <= 0 {
		return zero, ErrNoInputs
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan *erroror.Value[Out], len(inputs))
	for _, input := range inputs {
		ch := Go(ctx, stage, input)
		go func() {
			result, ok := <-ch
			if !ok {
				result = &erroror.Value[Out]{Err: ctx.Err()}
			}
			results <- result
		}()
	}
	var firstErr error
	for pending := len(inputs); pending > 0; pending-- {
		result := <-results
		if result.Err == nil {
			go drainAndClose[Out](results, pending-1)
			return result.Value, nil
		}
		if firstErr == nil {
			firstErr = result.Err
		}
	}
	return zero, firstErr
}

// drainAndClose reads count results and closes the successful ones.
func drainAndClose[Out any](results <-chan *erroror.Value[Out], count int) {
	for ; count > 0; count-- {
		if result := <-results; result.Err == nil {
			maybeClose(result.Value)
		}
	}
}

func maybeClose(value any) {
	if closer, good := value.(io.Closer); good {
		closer.Close()
	}
}

// Map runs the stage for every input using at most parallelism
// goroutines (one goroutine if parallelism < 1) and returns the
// results in the same order of the inputs. Calls may complete in
// any order and the failure of a call does not affect others.
func Map[In, Out any](
	ctx context.Context,
	parallelism Parallelism,
	stage model.Stage[In, Out],
	inputs ...In,
) []*erroror.Value[Out] {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]*erroror.Value[Out], len(inputs))
	group := &errgroup.Group{}
	group.SetLimit(int(parallelism))
	for idx, input := range inputs {
		group.Go(func() error {
			value, err := Run(ctx, stage, input)
			results[idx] = &erroror.Value[Out]{Err: err, Value: value}
			return nil
		})
	}
	_ = group.Wait() // the goroutines never fail
	return results
}
