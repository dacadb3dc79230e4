package main

//
// Logging functionality
//

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// logHandler is a github.com/apex/log handler that prefixes each
// message with the level and the time elapsed since the handler
// was created, so that slow steps of the pipeline stand out.
type logHandler struct {
	// Writer is where we write log lines.
	Writer io.Writer

	// mu serializes writes.
	mu sync.Mutex

	// t0 is the zero time.
	t0 time.Time
}

var _ log.Handler = &logHandler{}

func newLogHandler(w io.Writer) *logHandler {
	return &logHandler{Writer: w, t0: time.Now()}
}

// HandleLog implements log.Handler.
func (h *logHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s [%9.3fs] %s", e.Level.String(), time.Since(h.t0).Seconds(), e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteString("\n")
	defer h.mu.Unlock()
	h.mu.Lock()
	_, err := io.WriteString(h.Writer, b.String())
	return err
}
