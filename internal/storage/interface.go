package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/streaks/internal/models"
)

// ErrNotFound is returned by GetHabit and UpdateHabit when no habit has the given id.
var ErrNotFound = errors.New("habit not found")

// Provider persists habits. Listing returns habits in insertion order.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Habits
	ListHabits(ctx context.Context) ([]models.Habit, error)
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	AddHabit(ctx context.Context, habit models.Habit) error
	UpdateHabit(ctx context.Context, habit models.Habit) error
	DeleteHabit(ctx context.Context, id string) error

	// Utils
	GetConfigPath() string
}
