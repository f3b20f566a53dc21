// Package tui is the terminal client for a running streaks server. Every
// change goes through the reconciliation layer, so the list reacts at once and
// then settles on whatever the server recorded.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaks/internal/clock"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/reconcile"
	"github.com/julianstephens/streaks/internal/tui/components/habits"
)

// HabitAPI is the server surface the TUI drives.
type HabitAPI interface {
	List(ctx context.Context) ([]models.Habit, error)
	Create(ctx context.Context, name string) (models.Habit, error)
	Toggle(ctx context.Context, id string) (models.Habit, error)
	Remove(ctx context.Context, id string) error
}

type SessionState int

const (
	StateHabits SessionState = iota
	StateAddHabit
	StateConfirmDelete
)

const defaultRequestTimeout = 10 * time.Second

type HabitFormModel struct {
	Name string
}

type Model struct {
	api             HabitAPI
	clock           clock.Clock
	rows            *reconcile.List
	habitsModel     habits.Model
	state           SessionState
	keys            KeyMap
	help            help.Model
	form            *huh.Form
	habitForm       *HabitFormModel
	habitToDeleteID string
	status          string
	loading         bool
	timeout         time.Duration
	quitting        bool
	width           int
	height          int
}

func NewModel(api HabitAPI, clk clock.Clock) Model {
	return Model{
		api:         api,
		clock:       clk,
		rows:        reconcile.NewList(nil),
		habitsModel: habits.New(0, 0),
		state:       StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		loading:     true,
		timeout:     defaultRequestTimeout,
	}
}

func (m Model) ShortHelp() []key.Binding {
	return m.keys.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

// Status returns the message shown under the list.
func (m Model) Status() string {
	return m.status
}

// Habits returns the habits currently shown.
func (m Model) Habits() []models.Habit {
	return m.rows.Habits()
}

func (m *Model) syncItems() {
	all := m.rows.Habits()
	items := make([]habits.Item, 0, len(all))
	for _, h := range all {
		row, _ := m.rows.Row(h.ID)
		items = append(items, habits.Item{Habit: h, Pending: row.InFlight()})
	}
	m.habitsModel.SetItems(items)
}

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}
