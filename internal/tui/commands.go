package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streaks/internal/models"
)

type habitsLoadedMsg struct {
	habits []models.Habit
	err    error
}

type habitToggledMsg struct {
	id    string
	habit models.Habit
	err   error
}

type habitCreatedMsg struct {
	habit models.Habit
	err   error
}

type habitRemovedMsg struct {
	id  string
	err error
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		list, err := m.api.List(ctx)
		return habitsLoadedMsg{habits: list, err: err}
	}
}

func (m Model) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		h, err := m.api.Toggle(ctx, id)
		return habitToggledMsg{id: id, habit: h, err: err}
	}
}

func (m Model) createCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		h, err := m.api.Create(ctx, name)
		return habitCreatedMsg{habit: h, err: err}
	}
}

func (m Model) removeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return habitRemovedMsg{id: id, err: m.api.Remove(ctx, id)}
	}
}
