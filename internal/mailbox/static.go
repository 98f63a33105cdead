// Package mailbox provides the inbox collaborators that feed intake sweeps:
// a Gmail-backed mailbox and a static one loaded from a JSON export.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

var _ service.Mailbox = (*Static)(nil)

// Static serves a fixed list of messages, ordered oldest first.
type Static struct {
	emails []model.RawEmail
	mu     sync.RWMutex
}

// NewStatic creates a mailbox over the given messages.
func NewStatic(emails ...model.RawEmail) *Static {
	return &Static{emails: append([]model.RawEmail(nil), emails...)}
}

// Load reads a JSON array of messages from path.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied export
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox file: %w", err)
	}
	var emails []model.RawEmail
	if err := json.Unmarshal(data, &emails); err != nil {
		return nil, fmt.Errorf("failed to parse mailbox file %s: %w", path, err)
	}
	for i, e := range emails {
		if e.SourceID == "" {
			return nil, fmt.Errorf("message %d in %s has no source_id", i, path)
		}
	}
	return NewStatic(emails...), nil
}

// Add appends messages, as if they had just arrived.
func (s *Static) Add(emails ...model.RawEmail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, emails...)
}

// FetchRecent returns messages after afterMarker. An unknown or empty marker
// starts from the oldest message.
func (s *Static) FetchRecent(ctx context.Context, afterMarker string, maxCount int) ([]model.RawEmail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if afterMarker != "" {
		for i, e := range s.emails {
			if e.SourceID == afterMarker {
				start = i + 1
				break
			}
		}
	}
	rest := s.emails[start:]
	if maxCount > 0 && len(rest) > maxCount {
		rest = rest[:maxCount]
	}
	return append([]model.RawEmail(nil), rest...), nil
}
