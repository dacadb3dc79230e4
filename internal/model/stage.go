package model

//
// Pipeline stages
//

import "context"

// Stage is a step of a connection-establishment pipeline that
// transforms an input into an output, possibly performing I/O.
//
// Stages follow a two-phase protocol. The caller first calls Ready,
// which blocks until the stage is able to accept a new call or the
// context is done. Then, the caller calls Call. A stage that wraps
// another stage MUST delegate Ready to the wrapped stage.
//
// A Stage MUST be safe for concurrent use: multiple connection
// requests may be in flight through the same instance.
type Stage[In, Out any] interface {
	// Ready returns nil when the stage is ready to accept a call.
	Ready(ctx context.Context) error

	// Call runs the stage. The context bounds the whole operation and
	// canceling it releases any partially-acquired resource.
	Call(ctx context.Context, input In) (Out, error)
}
