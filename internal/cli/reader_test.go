package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReaderReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain line", input: "confirm\n", want: "confirm"},
		{name: "surrounding whitespace", input: "  r  \n", want: "r"},
		{name: "empty line", input: "\n", want: ""},
		{name: "no trailing newline", input: "q", want: "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLineReader(strings.NewReader(tt.input)).ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineReaderEOF(t *testing.T) {
	_, err := NewLineReader(strings.NewReader("")).ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderCancellation(t *testing.T) {
	t.Run("already canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewLineReader(strings.NewReader("c\n")).ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)
	})

	t.Run("canceled while waiting", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pr.Close() }()
		defer func() { _ = pw.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewLineReader(pr).ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)
	})
}

func TestLineReaderMultipleReads(t *testing.T) {
	r := NewLineReader(strings.NewReader("line1\nline2\n"))
	ctx := context.Background()

	first, err := r.ReadLine(ctx)
	require.NoError(t, err)
	second, err := r.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"line1", "line2"}, []string{first, second})
}
