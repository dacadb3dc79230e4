// Package stagex contains combinators for [model.Stage].
//
// The stages in this package are decorators: they wrap an inner stage
// and delegate Ready to it. Callers compose timeouts, metrics, and
// concurrency using this package rather than inside the stages.
package stagex
