package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT/SIGTERM and tells the user
// how to resume.
type InterruptHandler struct {
	writer      io.Writer
	signals     chan os.Signal
	resumeHint  string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer, signals: make(chan os.Signal, 1)}
}

// HandleInterrupts returns a context canceled on the first interrupt. A
// non-empty resumeHint is printed as the command that picks up where the
// interrupted one stopped.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, resumeHint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	h.resumeHint = resumeHint
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.signals)
		select {
		case <-h.signals:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Interrupted!")
	if h.resumeHint != "" {
		msg += "\n" + FormatInfo("Progress has been saved. Resume with: "+h.resumeHint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort; we're shutting down anyway.
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
