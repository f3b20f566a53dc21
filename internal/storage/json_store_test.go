package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/streaks/internal/models"
)

func setupTestJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "habits.json")
	store := NewJSONStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return store, path
}

func habitFixture(id, name string) models.Habit {
	return models.Habit{ID: id, Name: name}
}

func TestJSONStoreInitTwice(t *testing.T) {
	store, path := setupTestJSONStore(t)
	if err := store.Init(); err == nil {
		t.Error("second Init should fail when the file exists")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file missing: %v", err)
	}
}

func TestJSONStoreLoadUninitialized(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	if err := store.Load(); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestJSONStoreNotLoaded(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "habits.json"))
	if _, err := store.ListHabits(context.Background()); err == nil {
		t.Error("ListHabits should fail before Load")
	}
}

func TestJSONStoreInsertionOrder(t *testing.T) {
	store, path := setupTestJSONStore(t)
	ctx := context.Background()

	for _, h := range []models.Habit{
		habitFixture("c", "Read"),
		habitFixture("a", "Run"),
		habitFixture("b", "Stretch"),
	} {
		if err := store.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit(%s) failed: %v", h.ID, err)
		}
	}

	reloaded := NewJSONStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	habits, err := reloaded.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}

	want := []string{"c", "a", "b"}
	if len(habits) != len(want) {
		t.Fatalf("expected %d habits, got %d", len(want), len(habits))
	}
	for i, id := range want {
		if habits[i].ID != id {
			t.Errorf("habit %d: expected id %s, got %s", i, id, habits[i].ID)
		}
	}
}

func TestJSONStoreAddDuplicate(t *testing.T) {
	store, _ := setupTestJSONStore(t)
	ctx := context.Background()

	if err := store.AddHabit(ctx, habitFixture("a", "Run")); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	if err := store.AddHabit(ctx, habitFixture("a", "Run again")); err == nil {
		t.Error("AddHabit should reject a duplicate id")
	}
}

func TestJSONStoreUpdateAndGet(t *testing.T) {
	store, path := setupTestJSONStore(t)
	ctx := context.Background()

	if err := store.AddHabit(ctx, habitFixture("a", "Run")); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	day := models.MustParseDate("2024-06-10")
	updated := models.Habit{ID: "a", Name: "Run", Streak: 4, CompletedToday: true, LastCompletedDate: &day}
	if err := store.UpdateHabit(ctx, updated); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}

	reloaded := NewJSONStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := reloaded.GetHabit(ctx, "a")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Streak != 4 || !got.CompletedToday || got.LastCompletedDate == nil || *got.LastCompletedDate != day {
		t.Errorf("unexpected habit after reload: %+v", got)
	}
}

func TestJSONStoreNotFound(t *testing.T) {
	store, _ := setupTestJSONStore(t)
	ctx := context.Background()

	if _, err := store.GetHabit(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHabit: expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateHabit(ctx, habitFixture("nope", "x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateHabit: expected ErrNotFound, got %v", err)
	}
}

func TestJSONStoreDeleteIdempotent(t *testing.T) {
	store, _ := setupTestJSONStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.AddHabit(ctx, habitFixture(id, "habit "+id)); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
	}

	if err := store.DeleteHabit(ctx, "b"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if err := store.DeleteHabit(ctx, "b"); err != nil {
		t.Errorf("deleting an absent habit should succeed, got %v", err)
	}

	habits, err := store.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 2 || habits[0].ID != "a" || habits[1].ID != "c" {
		t.Errorf("unexpected habits after delete: %+v", habits)
	}
}

func TestJSONStoreListIsCopy(t *testing.T) {
	store, _ := setupTestJSONStore(t)
	ctx := context.Background()

	if err := store.AddHabit(ctx, habitFixture("a", "Run")); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	habits, _ := store.ListHabits(ctx)
	habits[0].Name = "changed"

	got, _ := store.GetHabit(ctx, "a")
	if got.Name != "Run" {
		t.Errorf("mutating the listing changed the store: %q", got.Name)
	}
}

func TestJSONStoreNoTempFilesLeft(t *testing.T) {
	store, path := setupTestJSONStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.AddHabit(ctx, habitFixture(id, "habit")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the store file, found %v", names)
	}
}

func TestJSONStoreCanceledContext(t *testing.T) {
	store, _ := setupTestJSONStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.AddHabit(ctx, habitFixture("a", "Run")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
