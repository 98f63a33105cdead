// Package tui is the full-screen staging review for `orbit review`.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/model"
)

// PendingLister loads the records to review.
type PendingLister interface {
	ListStagingRecords(ctx context.Context, userID string, status model.StagingStatus) ([]model.StagingRecord, error)
}

// Config wires the review screen to storage and feedback.
type Config struct {
	Store    PendingLister
	Feedback cli.FeedbackApplier
	UserID   string
	Width    int
	Height   int
}

// rejectReasons are listed in the reason picker in this order.
var rejectReasons = []model.FeedbackReason{
	model.ReasonNotJobRelated,
	model.ReasonPromotional,
	model.ReasonDuplicate,
	model.ReasonWrongDetails,
	model.ReasonNotForMe,
	model.ReasonOther,
}

// Model holds the review screen state.
type Model struct {
	ctx          context.Context
	lastError    error
	cfg          Config
	keymap       KeyMap
	status       string
	records      []model.StagingRecord
	help         help.Model
	spinner      spinner.Model
	stats        cli.ReviewStats
	cursor       int
	reasonCursor int
	width        int
	height       int
	state        State
	ready        bool
	busy         bool
	quitting     bool
}

// New creates the review model.
func New(ctx context.Context, cfg Config) Model {
	if cfg.Width == 0 {
		cfg.Width = 80
	}
	if cfg.Height == 0 {
		cfg.Height = 24
	}
	return Model{
		ctx:     ctx,
		cfg:     cfg,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   cfg.Width,
		height:  cfg.Height,
		state:   StateList,
	}
}

// Stats returns the decisions made so far.
func (m Model) Stats() cli.ReviewStats {
	return m.stats
}

// Init loads pending records.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPending(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.ready && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case recordsLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.lastError = msg.err
			m.state = StateDone
			return m, nil
		}
		m.lastError = nil
		m.records = msg.records
		m.cursor = 0
		m.state = StateList
		if len(m.records) == 0 {
			m.state = StateDone
		}
		return m, nil

	case reviewedMsg:
		return m.handleReviewed(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keymap.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if !m.ready || m.busy {
		return m, nil
	}

	switch m.state {
	case StateReason:
		return m.handleReasonKey(msg)
	case StateDone:
		if key.Matches(msg, m.keymap.Quit, m.keymap.Back) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keymap.Refresh) {
			m.ready = false
			return m, tea.Batch(m.loadPending(), m.spinner.Tick)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Skip):
		m.stats.Skipped++
		m.status = "Skipped"
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Confirm):
		m.busy = true
		m.lastError = nil
		return m, tea.Batch(m.confirm(m.records[m.cursor].ID), m.spinner.Tick)
	case key.Matches(msg, m.keymap.Reject):
		m.state = StateReason
		m.reasonCursor = 0
	case key.Matches(msg, m.keymap.Refresh):
		m.ready = false
		return m, tea.Batch(m.loadPending(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) handleReasonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.state = StateList
	case key.Matches(msg, m.keymap.Up):
		if m.reasonCursor > 0 {
			m.reasonCursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.reasonCursor < len(rejectReasons)-1 {
			m.reasonCursor++
		}
	case key.Matches(msg, m.keymap.Select):
		return m.submitReject(rejectReasons[m.reasonCursor])
	default:
		// Digits pick a reason directly.
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'0') <= len(rejectReasons) {
			return m.submitReject(rejectReasons[s[0]-'1'])
		}
	}
	return m, nil
}

func (m Model) submitReject(reason model.FeedbackReason) (tea.Model, tea.Cmd) {
	m.busy = true
	m.lastError = nil
	m.state = StateList
	return m, tea.Batch(m.reject(m.records[m.cursor].ID, reason), m.spinner.Tick)
}

func (m Model) handleReviewed(msg reviewedMsg) Model {
	m.busy = false
	if msg.err != nil {
		m.lastError = msg.err
		return m
	}

	if msg.accepted {
		m.stats.Confirmed++
		verb := "Tracking"
		if msg.result.Updated {
			verb = "Updated"
		}
		m.status = fmt.Sprintf("%s %s (%s)", verb, msg.result.Application.CompanyName, msg.result.Application.Status)
	} else {
		m.stats.Rejected++
		m.status = "Rejected: " + string(msg.reason)
	}

	m.records = remove(m.records, msg.id)
	if m.cursor >= len(m.records) {
		m.cursor = max(len(m.records)-1, 0)
	}
	if len(m.records) == 0 {
		m.state = StateDone
	}
	return m
}

func remove(records []model.StagingRecord, id string) []model.StagingRecord {
	out := records[:0:0]
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// Run shows the review screen until the user quits and returns the
// decisions made.
func Run(ctx context.Context, cfg Config) (cli.ReviewStats, error) {
	if cfg.Store == nil || cfg.Feedback == nil {
		return cli.ReviewStats{}, errors.New("review requires storage and feedback")
	}

	p := tea.NewProgram(New(ctx, cfg), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		if err != nil && errors.Is(err, tea.ErrProgramKilled) {
			return fm.Stats(), ctx.Err()
		}
		return fm.Stats(), err
	}
	return cli.ReviewStats{}, err
}
