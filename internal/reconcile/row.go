// Package reconcile keeps a client's view of habits responsive while the
// server stays the source of truth. Toggles are predicted locally with the
// same transition the server uses, then overwritten by the server's record or
// rolled back to the snapshot taken before the prediction.
package reconcile

import (
	"errors"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/streak"
)

// State is the reconciliation state of a single habit row.
type State int

const (
	Idle State = iota
	Optimistic
	Reconciled
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Optimistic:
		return "optimistic"
	case Reconciled:
		return "reconciled"
	case RolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

var (
	// ErrInFlight is returned when a row already has an unresolved toggle.
	ErrInFlight = errors.New("toggle already in flight")
	// ErrNotInFlight is returned when resolving a row with no pending toggle.
	ErrNotInFlight = errors.New("no toggle in flight")
	// ErrUnknownHabit is returned for ids not in the list.
	ErrUnknownHabit = errors.New("habit not in list")
)

// Row tracks one habit and at most one in-flight toggle.
type Row struct {
	habit    models.Habit
	snapshot models.Habit
	state    State
}

func NewRow(h models.Habit) *Row {
	return &Row{habit: h}
}

// Habit returns what the row currently shows.
func (r *Row) Habit() models.Habit {
	return r.habit
}

func (r *Row) State() State {
	return r.state
}

// InFlight reports whether a toggle is awaiting the server.
func (r *Row) InFlight() bool {
	return r.state == Optimistic
}

// Begin snapshots the row and applies the predicted toggle for today.
func (r *Row) Begin(today models.Date) (models.Habit, error) {
	if r.state == Optimistic {
		return r.habit, ErrInFlight
	}
	r.snapshot = r.habit
	r.habit = streak.Transition(r.habit, today)
	r.state = Optimistic
	return r.habit, nil
}

// Resolve replaces the row with the server's record.
func (r *Row) Resolve(server models.Habit) error {
	if r.state != Optimistic {
		return ErrNotInFlight
	}
	r.habit = server
	r.snapshot = models.Habit{}
	r.state = Reconciled
	return nil
}

// Fail restores the snapshot taken by Begin.
func (r *Row) Fail() error {
	if r.state != Optimistic {
		return ErrNotInFlight
	}
	r.habit = r.snapshot
	r.snapshot = models.Habit{}
	r.state = RolledBack
	return nil
}
