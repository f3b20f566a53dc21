package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.viewHabits()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Streaks"),
		mutedStyle.Render(" "+m.clock.Today().String()),
	)
}

func (m Model) viewHabits() string {
	if m.loading && m.rows.Len() == 0 {
		return docStyle.Render("Loading habits…")
	}
	return docStyle.Render(m.habitsModel.View())
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	return statusStyle.Render(m.status)
}

func (m Model) viewConfirmDelete() string {
	name := m.habitToDeleteID
	if row, ok := m.rows.Row(m.habitToDeleteID); ok {
		name = row.Habit().Name
	}
	return lipgloss.Place(m.width, max(m.height-4, 0),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete "+name+"?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
