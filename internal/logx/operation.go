// Package logx contains logging extensions.
package logx

import (
	"fmt"
	"sync"
	"time"

	"github.com/ooni/connectx/internal/model"
)

// DefaultOperationLoggerMaxWait is the time after which an
// [OperationLogger] reports that an operation is still running.
const DefaultOperationLoggerMaxWait = 500 * time.Millisecond

// OperationLogger logs the beginning and the end of an operation. Fast
// operations only emit a single debug line when they end. Slow ones also
// emit an info line saying they are in progress, so the user knows
// what we are waiting for. The zero value is invalid; use
// [NewOperationLogger] to construct.
type OperationLogger struct {
	// logger is the underlying logger.
	logger model.Logger

	// maxwait is the time after which we say we're in progress.
	maxwait time.Duration

	// message is the formatted operation message.
	message string

	// once ensures the final message is emitted just once.
	once sync.Once

	// sighup is closed by Stop to interrupt the background goroutine.
	sighup chan struct{}

	// wg tracks the background goroutine.
	wg sync.WaitGroup

	// slow is set when we have emitted the in-progress line.
	slow bool
}

// NewOperationLogger creates a new [OperationLogger] and starts
// timing the operation described by format and v.
func NewOperationLogger(logger model.Logger, format string, v ...any) *OperationLogger {
	return newOperationLogger(DefaultOperationLoggerMaxWait, logger, format, v...)
}

func newOperationLogger(maxwait time.Duration, logger model.Logger, format string, v ...any) *OperationLogger {
	ol := &OperationLogger{
		logger:  model.ValidLoggerOrDefault(logger),
		maxwait: maxwait,
		message: fmt.Sprintf(format, v...),
		sighup:  make(chan struct{}),
	}
	ol.logger.Debugf("%s...", ol.message)
	ol.wg.Add(1)
	go ol.maybeEmitProgress()
	return ol
}

func (ol *OperationLogger) maybeEmitProgress() {
	defer ol.wg.Done()
	timer := time.NewTimer(ol.maxwait)
	defer timer.Stop()
	select {
	case <-timer.C:
		ol.slow = true
		ol.logger.Infof("%s... in progress", ol.message)
	case <-ol.sighup:
	}
}

// Stop stops the operation logger and emits the final message. When
// the operation was slow, we use the info level for success and the
// warning level for failure, otherwise we use the debug level.
func (ol *OperationLogger) Stop(err error) {
	ol.once.Do(func() {
		close(ol.sighup)
		ol.wg.Wait()
		switch {
		case err != nil && ol.slow:
			ol.logger.Warnf("%s... %s", ol.message, err.Error())
		case ol.slow:
			ol.logger.Infof("%s... ok", ol.message)
		default:
			ol.logger.Debugf("%s... %s", ol.message, model.ErrorToStringOrOK(err))
		}
	})
}
