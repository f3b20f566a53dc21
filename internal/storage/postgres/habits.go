package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
)

const habitColumns = "id, name, streak, completed_today, last_completed_date"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var last sql.Null[models.Date]
	if err := row.Scan(&h.ID, &h.Name, &h.Streak, &h.CompletedToday, &last); err != nil {
		return models.Habit{}, err
	}
	if last.Valid {
		day := last.V
		h.LastCompletedDate = &day
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+habitColumns+" FROM habits ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}
	return habits, nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = $1", id)
	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, storage.ErrNotFound
		}
		return models.Habit{}, fmt.Errorf("failed to get habit %s: %w", id, err)
	}
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		habit.ID, habit.Name, habit.Streak, habit.CompletedToday, habit.LastCompletedDate,
	)
	if err != nil {
		return fmt.Errorf("failed to add habit %s: %w", habit.ID, err)
	}
	return nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE habits
		SET name = $1, streak = $2, completed_today = $3, last_completed_date = $4
		WHERE id = $5`,
		habit.Name, habit.Streak, habit.CompletedToday, habit.LastCompletedDate, habit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit %s: %w", habit.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update habit %s: %w", habit.ID, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	return nil
}
