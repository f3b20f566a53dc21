// Package service implements the habit operations exposed over HTTP: list,
// create, toggle and remove. It owns the read-modify-write around the streak
// engine and maps storage failures onto the application error taxonomy.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/julianstephens/streaks/internal/clock"
	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
	"github.com/julianstephens/streaks/internal/streak"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// nameRules are the validation rules for a habit name. max counts runes.
var nameRules = "required,max=" + strconv.Itoa(constants.MaxHabitNameLength)

// Service coordinates the habit store and the streak engine.
type Service struct {
	store storage.Provider
	clock clock.Clock
	newID func() string
	locks *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides how new habit ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func New(store storage.Provider, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: clk,
		newID: uuid.NewString,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all habits in creation order. A completion flag carried over
// from an earlier day is reported as false.
func (s *Service) List(ctx context.Context) ([]models.Habit, error) {
	habits, err := s.store.ListHabits(ctx)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list", Err: err}
	}

	today := s.clock.Today()
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, streak.Normalize(h, today))
	}
	return out, nil
}

// Create validates the trimmed name and stores a fresh habit.
func (s *Service) Create(ctx context.Context, name string) (models.Habit, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Habit{}, err
	}

	h := models.Habit{
		ID:   s.newID(),
		Name: name,
	}
	if err := s.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, &apperrors.StorageError{Op: "create", Err: err}
	}

	return h, nil
}

func validateName(name string) error {
	err := validate.Var(name, nameRules)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return &apperrors.ValidationError{Field: "name", Reason: "must not be empty"}
		case "max":
			return &apperrors.ValidationError{Field: "name", Reason: "must be at most " + verrs[0].Param() + " characters"}
		}
	}
	return &apperrors.ValidationError{Field: "name", Reason: err.Error()}
}

// Toggle flips today's completion for the habit and persists the result.
// Toggles of the same habit are applied one at a time.
func (s *Service) Toggle(ctx context.Context, id string) (models.Habit, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	h, err := s.store.GetHabit(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Habit{}, &apperrors.NotFoundError{ID: id}
		}
		return models.Habit{}, &apperrors.StorageError{Op: "toggle", Err: err}
	}

	next := streak.Transition(h, s.clock.Today())
	if err := s.store.UpdateHabit(ctx, next); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Habit{}, &apperrors.NotFoundError{ID: id}
		}
		return models.Habit{}, &apperrors.StorageError{Op: "toggle", Err: err}
	}

	logger.Debug("Habit toggled", "id", id, "completed_today", next.CompletedToday, "streak", next.Streak)
	return next, nil
}

// Remove deletes the habit. Removing an unknown id succeeds.
func (s *Service) Remove(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return &apperrors.StorageError{Op: "delete", Err: err}
	}
	logger.Debug("Habit removed", "id", id)
	return nil
}
