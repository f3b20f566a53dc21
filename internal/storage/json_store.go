package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/models"
)

const jsonStoreVersion = 1

// Document is the on-disk layout of a JSON habit store.
type Document struct {
	Version int            `json:"version"`
	Habits  []models.Habit `json:"habits"`
}

// JSONStore keeps all habits in a single JSON document. Every write replaces
// the file atomically.
type JSONStore struct {
	path string

	mu  sync.RWMutex
	doc *Document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.doc = &Document{
		Version: jsonStoreVersion,
		Habits:  []models.Habit{},
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > jsonStoreVersion {
		return fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade the application", doc.Version, jsonStoreVersion)
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}

	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes the document to a temp file in the same directory and renames
// it over the store file. Callers hold s.mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}

	return nil
}

func (s *JSONStore) indexOf(id string) int {
	for i, h := range s.doc.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *JSONStore) ListHabits(ctx context.Context) ([]models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	habits := make([]models.Habit, len(s.doc.Habits))
	copy(habits, s.doc.Habits)
	return habits, nil
}

func (s *JSONStore) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return models.Habit{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return models.Habit{}, fmt.Errorf("storage not loaded")
	}

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, ErrNotFound
	}
	return s.doc.Habits[i], nil
}

func (s *JSONStore) AddHabit(ctx context.Context, habit models.Habit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	if s.indexOf(habit.ID) >= 0 {
		return fmt.Errorf("habit already exists: %s", habit.ID)
	}

	s.doc.Habits = append(s.doc.Habits, habit)
	if err := s.save(); err != nil {
		s.doc.Habits = s.doc.Habits[:len(s.doc.Habits)-1]
		return err
	}
	return nil
}

func (s *JSONStore) UpdateHabit(ctx context.Context, habit models.Habit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}

	i := s.indexOf(habit.ID)
	if i < 0 {
		return ErrNotFound
	}

	prev := s.doc.Habits[i]
	s.doc.Habits[i] = habit
	if err := s.save(); err != nil {
		s.doc.Habits[i] = prev
		return err
	}
	return nil
}

func (s *JSONStore) DeleteHabit(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	prev := s.doc.Habits
	habits := make([]models.Habit, 0, len(prev)-1)
	habits = append(habits, prev[:i]...)
	habits = append(habits, prev[i+1:]...)
	s.doc.Habits = habits
	if err := s.save(); err != nil {
		s.doc.Habits = prev
		return err
	}
	return nil
}

// GetConfigPath returns the path to the JSON document.
//
// Running multiple processes against the same file is not supported and may
// lose writes.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
