package tui

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaks/internal/client"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/reconcile"
	"github.com/julianstephens/streaks/internal/tui/components/habits"
)

const (
	statusLoadFailed   = "Couldn't reach the server. Press r to try again."
	statusToggleFailed = "Couldn't save that change, so it was undone."
	statusGone         = "That habit no longer exists."
	statusRemoveFailed = "Couldn't delete that habit. Refreshing the list."
	statusCreateFailed = "Couldn't add that habit."
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case habitsLoadedMsg:
		return m.handleLoaded(msg)
	case habitToggledMsg:
		return m.handleToggled(msg)
	case habitCreatedMsg:
		return m.handleCreated(msg)
	case habitRemovedMsg:
		return m.handleRemoved(msg)

	case habits.ToggleHabitMsg:
		return m.beginToggle(msg.ID)
	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		m.form = newHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()
	case habits.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.state = StateConfirmDelete
		return m, nil
	case habits.RefreshMsg:
		m.loading = true
		return m, m.loadCmd()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.habitsModel, cmd = m.habitsModel.Update(msg)
	return m, cmd
}

func (m Model) handleLoaded(msg habitsLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		logger.Warn("Failed to load habits", "error", msg.err)
		m.status = statusLoadFailed
		return m, nil
	}
	m.rows.Replace(msg.habits)
	m.status = ""
	m.syncItems()
	return m, nil
}

func (m Model) beginToggle(id string) (tea.Model, tea.Cmd) {
	if _, err := m.rows.BeginToggle(id, m.clock.Today()); err != nil {
		// A second press on a saving row, or a row that has gone, is ignored.
		return m, nil
	}
	m.status = ""
	m.syncItems()
	return m, m.toggleCmd(id)
}

func (m Model) handleToggled(msg habitToggledMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Warn("Toggle failed", "id", msg.id, "error", msg.err)
		_ = m.rows.FailToggle(msg.id)
		var apiErr *client.APIError
		if errors.As(msg.err, &apiErr) && apiErr.NotFound() {
			m.rows.Remove(msg.id)
			m.status = statusGone
		} else {
			m.status = statusToggleFailed
		}
		m.syncItems()
		return m, nil
	}

	if err := m.rows.ResolveToggle(msg.habit); errors.Is(err, reconcile.ErrNotInFlight) {
		// The list was reloaded while the toggle was out; the server record
		// is still newer than that listing.
		m.rows.Add(msg.habit)
	}
	m.syncItems()
	return m, nil
}

func (m Model) handleCreated(msg habitCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Warn("Create failed", "error", msg.err)
		var apiErr *client.APIError
		if errors.As(msg.err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && apiErr.Field != "" {
			m.status = "Habit not added: " + apiErr.Message
		} else {
			m.status = statusCreateFailed
		}
		return m, nil
	}
	m.rows.Add(msg.habit)
	m.status = ""
	m.syncItems()
	return m, nil
}

func (m Model) handleRemoved(msg habitRemovedMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		return m, nil
	}
	logger.Warn("Delete failed", "id", msg.id, "error", msg.err)
	m.rows.FailRemove()
	m.status = statusRemoveFailed
	m.loading = true
	return m, m.loadCmd()
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateHabits
		cmds = append(cmds, m.createCmd(m.habitForm.Name))
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.habitToDeleteID
		m.habitToDeleteID = ""
		m.state = StateHabits
		if !m.rows.Remove(id) {
			return m, nil
		}
		m.status = ""
		m.syncItems()
		return m, m.removeCmd(id)
	case "n", "N", "esc", "q":
		m.habitToDeleteID = ""
		m.state = StateHabits
	}
	return m, nil
}
