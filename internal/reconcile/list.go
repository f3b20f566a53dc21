package reconcile

import "github.com/julianstephens/streaks/internal/models"

// List is the client's ordered view of all habits.
//
// List is not safe for concurrent use; callers drive it from one goroutine,
// such as a UI update loop.
type List struct {
	rows         []*Row
	needsRefetch bool
}

func NewList(habits []models.Habit) *List {
	l := &List{}
	l.Replace(habits)
	return l
}

// Replace discards local state and shows the server's listing.
func (l *List) Replace(habits []models.Habit) {
	rows := make([]*Row, 0, len(habits))
	for _, h := range habits {
		rows = append(rows, NewRow(h))
	}
	l.rows = rows
	l.needsRefetch = false
}

// Habits returns the habits currently shown, in order.
func (l *List) Habits() []models.Habit {
	habits := make([]models.Habit, 0, len(l.rows))
	for _, r := range l.rows {
		habits = append(habits, r.Habit())
	}
	return habits
}

func (l *List) Len() int {
	return len(l.rows)
}

// Row returns the row for id.
func (l *List) Row(id string) (*Row, bool) {
	i := l.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return l.rows[i], true
}

func (l *List) indexOf(id string) int {
	for i, r := range l.rows {
		if r.habit.ID == id {
			return i
		}
	}
	return -1
}

// BeginToggle applies the predicted toggle to the row for id.
func (l *List) BeginToggle(id string, today models.Date) (models.Habit, error) {
	r, ok := l.Row(id)
	if !ok {
		return models.Habit{}, ErrUnknownHabit
	}
	return r.Begin(today)
}

// ResolveToggle overwrites the row with the server's record. A row removed
// while the toggle was in flight stays removed.
func (l *List) ResolveToggle(server models.Habit) error {
	r, ok := l.Row(server.ID)
	if !ok {
		return ErrUnknownHabit
	}
	return r.Resolve(server)
}

// FailToggle rolls the row for id back to its pre-toggle state.
func (l *List) FailToggle(id string) error {
	r, ok := l.Row(id)
	if !ok {
		return ErrUnknownHabit
	}
	return r.Fail()
}

// Remove hides the habit immediately. It reports whether the id was shown.
func (l *List) Remove(id string) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	return true
}

// FailRemove marks the list stale after a failed delete. The caller refetches
// and calls Replace rather than undoing the removal locally.
func (l *List) FailRemove() {
	l.needsRefetch = true
}

// NeedsRefetch reports whether the list must be reloaded from the server.
func (l *List) NeedsRefetch() bool {
	return l.needsRefetch
}

// Add appends a habit the server has created.
func (l *List) Add(h models.Habit) {
	if i := l.indexOf(h.ID); i >= 0 {
		l.rows[i] = NewRow(h)
		return
	}
	l.rows = append(l.rows, NewRow(h))
}
