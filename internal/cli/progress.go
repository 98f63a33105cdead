package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// SyncProgress draws a progress bar for an intake sweep. Its Update method
// matches the syncer's progress callback; the bar is created on the first
// call, once the number of fetched messages is known.
type SyncProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	done   int
	mu     sync.Mutex
}

// NewSyncProgress creates a progress display writing to w.
func NewSyncProgress(w io.Writer) *SyncProgress {
	return &SyncProgress{writer: w}
}

// Update moves the bar to done of total.
func (p *SyncProgress) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Scanning inbox...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	p.done = done
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Done reports how far the bar got.
func (p *SyncProgress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
