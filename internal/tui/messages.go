package tui

import (
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/pipeline"
)

// State represents the current screen.
type State int

const (
	StateList State = iota
	StateReason
	StateDone
)

type recordsLoadedMsg struct {
	err     error
	records []model.StagingRecord
}

// reviewedMsg reports the outcome of one confirm or reject.
type reviewedMsg struct {
	err      error
	id       string
	reason   model.FeedbackReason
	result   pipeline.ConfirmResult
	accepted bool
}
