package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

func setupTestStore(t *testing.T) (*Store, string, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	cleanup := func() {
		store.Close()
	}
	return store, dbPath, cleanup
}

func TestInitAppliesMigrations(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	current, latest, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("expected schema at latest version, got current=%d latest=%d", current, latest)
	}
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Error("Load should fail when the database does not exist")
	}
}

func TestLoadAfterInit(t *testing.T) {
	store, dbPath, cleanup := setupTestStore(t)
	ctx := context.Background()
	if err := store.AddHabit(ctx, models.Habit{ID: "a", Name: "Run"}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	cleanup()

	reopened := NewStore(dbPath)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	habits, err := reopened.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 1 || habits[0].Name != "Run" {
		t.Errorf("unexpected habits after reopen: %+v", habits)
	}
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	store, dbPath, cleanup := setupTestStore(t)
	if _, err := store.GetDB().Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("failed to bump schema version: %v", err)
	}
	cleanup()

	reopened := NewStore(dbPath)
	defer reopened.Close()
	if err := reopened.Load(); err == nil {
		t.Error("Load should reject a database newer than the application")
	}
}

func TestHabitRoundTrip(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	day := models.MustParseDate("2024-02-29")
	tests := []struct {
		name  string
		habit models.Habit
	}{
		{
			name:  "fresh habit",
			habit: models.Habit{ID: "fresh", Name: "Meditate"},
		},
		{
			name:  "completed today",
			habit: models.Habit{ID: "done", Name: "Run", Streak: 3, CompletedToday: true, LastCompletedDate: &day},
		},
		{
			name:  "completed earlier",
			habit: models.Habit{ID: "earlier", Name: "Read", Streak: 7, LastCompletedDate: &day},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.AddHabit(ctx, tt.habit); err != nil {
				t.Fatalf("AddHabit failed: %v", err)
			}
			got, err := store.GetHabit(ctx, tt.habit.ID)
			if err != nil {
				t.Fatalf("GetHabit failed: %v", err)
			}
			if got.ID != tt.habit.ID || got.Name != tt.habit.Name || got.Streak != tt.habit.Streak || got.CompletedToday != tt.habit.CompletedToday {
				t.Errorf("got %+v, want %+v", got, tt.habit)
			}
			if (got.LastCompletedDate == nil) != (tt.habit.LastCompletedDate == nil) {
				t.Fatalf("last completed date presence mismatch: got %v, want %v", got.LastCompletedDate, tt.habit.LastCompletedDate)
			}
			if got.LastCompletedDate != nil && *got.LastCompletedDate != *tt.habit.LastCompletedDate {
				t.Errorf("last completed date: got %s, want %s", got.LastCompletedDate, tt.habit.LastCompletedDate)
			}
		})
	}
}

func TestListHabitsInsertionOrder(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	habits, err := store.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if habits == nil || len(habits) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", habits)
	}

	ids := []string{"zeta", "alpha", "mu"}
	for _, id := range ids {
		if err := store.AddHabit(ctx, models.Habit{ID: id, Name: id}); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
	}

	habits, err = store.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	for i, id := range ids {
		if habits[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, habits[i].ID)
		}
	}
}

func TestUpdateHabit(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.AddHabit(ctx, models.Habit{ID: "a", Name: "Run"}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	day := models.MustParseDate("2024-06-10")
	if err := store.UpdateHabit(ctx, models.Habit{ID: "a", Name: "Run", Streak: 1, CompletedToday: true, LastCompletedDate: &day}); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	got, err := store.GetHabit(ctx, "a")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Streak != 1 || !got.CompletedToday || got.LastCompletedDate == nil {
		t.Errorf("unexpected habit after update: %+v", got)
	}

	// Undo clears the date again
	if err := store.UpdateHabit(ctx, models.Habit{ID: "a", Name: "Run"}); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	got, _ = store.GetHabit(ctx, "a")
	if got.LastCompletedDate != nil || got.Streak != 0 || got.CompletedToday {
		t.Errorf("expected cleared habit, got %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetHabit(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabit: expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateHabit(ctx, models.Habit{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateHabit: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteHabitIdempotent(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.AddHabit(ctx, models.Habit{ID: "a", Name: "Run"}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.DeleteHabit(ctx, "a"); err != nil {
			t.Fatalf("DeleteHabit (%d) failed: %v", i, err)
		}
	}
	if _, err := store.GetHabit(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected habit to be gone, got %v", err)
	}
}

func TestNegativeStreakRejected(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.AddHabit(context.Background(), models.Habit{ID: "a", Name: "Run", Streak: -1}); err == nil {
		t.Error("expected the schema to reject a negative streak")
	}
}

func TestConcurrentWrites(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.AddHabit(ctx, models.Habit{ID: string(rune('a' + i)), Name: "habit"})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent AddHabit failed: %v", err)
		}
	}

	habits, err := store.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 20 {
		t.Errorf("expected 20 habits, got %d", len(habits))
	}
}
