// Package streak holds the habit state transition rules. Everything here is
// pure: the same habit and day always produce the same result.
package streak

import "github.com/julianstephens/streaks/internal/models"

// Yesterday returns the day before today. It is the only definition of
// "yesterday" used when deciding whether a run continues.
func Yesterday(today models.Date) models.Date {
	return today.AddDays(-1)
}

// Toggle flips the habit's completed-today flag and updates the streak.
//
// Marking done continues the run when the last completion was yesterday,
// leaves it untouched when it was already today, and starts a new run of 1
// otherwise. Unmarking only undoes a completion made today; the previous
// completion date is not reconstructed.
func Toggle(h models.Habit, today models.Date) models.Habit {
	next := h
	next.CompletedToday = !h.CompletedToday

	if next.CompletedToday {
		switch {
		case h.CompletedOn(today):
		case h.CompletedOn(Yesterday(today)):
			next.Streak = h.Streak + 1
		default:
			next.Streak = 1
		}
		day := today
		next.LastCompletedDate = &day
		return next
	}

	if h.CompletedOn(today) {
		next.Streak = max(0, h.Streak-1)
		next.LastCompletedDate = nil
	}
	return next
}

// Normalize clears a completed-today flag left over from an earlier day.
// Streak and last completion date are kept.
func Normalize(h models.Habit, today models.Date) models.Habit {
	if h.CompletedToday && !h.CompletedOn(today) {
		h.CompletedToday = false
	}
	return h
}

// Transition is the toggle applied by both the server and the client
// prediction: day rollover first, then Toggle. A completed-today flag left
// over from an earlier day counts as not done today, so the toggle marks the
// habit done.
func Transition(h models.Habit, today models.Date) models.Habit {
	return Toggle(Normalize(h, today), today)
}
