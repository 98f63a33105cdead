package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/krishhsuri/Orbit/internal/model"
)

func (m Model) loadPending() tea.Cmd {
	return func() tea.Msg {
		records, err := m.cfg.Store.ListStagingRecords(m.ctx, m.cfg.UserID, model.StagingPending)
		return recordsLoadedMsg{records: records, err: err}
	}
}

func (m Model) confirm(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.cfg.Feedback.Confirm(m.ctx, id)
		return reviewedMsg{id: id, accepted: true, result: res, err: err}
	}
}

func (m Model) reject(id string, reason model.FeedbackReason) tea.Cmd {
	return func() tea.Msg {
		err := m.cfg.Feedback.Reject(m.ctx, id, reason)
		return reviewedMsg{id: id, reason: reason, err: err}
	}
}
