package tui

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaks/internal/constants"
)

func validateHabitName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return errors.New("habit name cannot be empty")
	}
	if utf8.RuneCountInString(name) > constants.MaxHabitNameLength {
		return errors.New("habit name is too long")
	}
	return nil
}

func newHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(validateHabitName),
		),
	).WithTheme(huh.ThemeDracula())
}
