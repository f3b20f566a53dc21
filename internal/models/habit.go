package models

import "fmt"

// Habit is a recurring practice with today's completion state and a
// consecutive-day streak ending at LastCompletedDate.
type Habit struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Streak            int    `json:"streak"`
	CompletedToday    bool   `json:"completed_today"`
	LastCompletedDate *Date  `json:"last_completed_date"`
}

// CreateHabitRequest is the payload for creating a new habit
type CreateHabitRequest struct {
	Name string `json:"name"`
}

// CompletedOn reports whether the habit was last completed on day.
func (h Habit) CompletedOn(day Date) bool {
	return h.LastCompletedDate != nil && *h.LastCompletedDate == day
}

// Validate checks the stored habit's state invariants relative to today.
//
// A streak without a completion date is valid: undoing today's completion
// clears the date but keeps the earlier run. A completed-today flag on an
// earlier date is a leftover from that day and is cleared on read.
func (h Habit) Validate(today Date) error {
	if h.Streak < 0 {
		return fmt.Errorf("habit %s: negative streak %d", h.ID, h.Streak)
	}
	if h.LastCompletedDate != nil && h.Streak == 0 {
		return fmt.Errorf("habit %s: completion date %s with zero streak", h.ID, h.LastCompletedDate)
	}
	if h.LastCompletedDate != nil && today.Before(*h.LastCompletedDate) {
		return fmt.Errorf("habit %s: completion date %s is in the future", h.ID, h.LastCompletedDate)
	}
	if h.CompletedToday && h.LastCompletedDate == nil {
		return fmt.Errorf("habit %s: marked completed without a completion date", h.ID)
	}
	return nil
}
