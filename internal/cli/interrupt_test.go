package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil)
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestHandleInterrupts(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx, cancel := handler.HandleInterrupts(context.Background(), "orbit sync")
	defer cancel()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	handler.signals <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled by the signal")
	}
	require.Eventually(t, handler.WasInterrupted, time.Second, 5*time.Millisecond)
	assert.Contains(t, output.String(), "Interrupted!")
	assert.Contains(t, output.String(), "Resume with: orbit sync")
}

func TestHandleInterruptsParentCancelIsSilent(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := handler.HandleInterrupts(parent, "")
	defer cancel()
	cancelParent()
	<-ctx.Done()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with resume hint",
			hint:     "orbit sync",
			expected: []string{"Interrupted!", "Progress has been saved", "Resume with: orbit sync"},
		},
		{
			name:        "without resume hint",
			expected:    []string{"Interrupted!"},
			notExpected: []string{"Progress has been saved", "Resume with"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, resumeHint: tt.hint}

			handler.showInterruptMessage()

			out := output.String()
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, out, unwanted)
			}
			assert.Equal(t, 1, strings.Count(out, "Interrupted!"))
		})
	}
}
