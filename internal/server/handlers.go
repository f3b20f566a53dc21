package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/logger"
	"github.com/julianstephens/streaks/internal/models"
)

// HabitService is the set of habit operations the HTTP handlers expose.
type HabitService interface {
	List(ctx context.Context) ([]models.Habit, error)
	Create(ctx context.Context, name string) (models.Habit, error)
	Toggle(ctx context.Context, id string) (models.Habit, error)
	Remove(ctx context.Context, id string) error
}

// HabitHandler handles all habit-related HTTP requests
type HabitHandler struct {
	svc     HabitService
	metrics *metrics
}

func newHabitHandler(svc HabitService, m *metrics) *HabitHandler {
	return &HabitHandler{
		svc:     svc,
		metrics: m,
	}
}

// ListHabits handles GET /api/habits
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Return empty array instead of null if no habits
	if habits == nil {
		habits = []models.Habit{}
	}

	writeJSON(w, http.StatusOK, habits)
}

// CreateHabit handles POST /api/habits
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req models.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty", "")
		default:
			logger.Debug("Invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body", "")
		}
		return
	}

	habit, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	logger.Info("Habit created", "id", habit.ID)
	writeJSON(w, http.StatusCreated, habit)
}

// ToggleHabit handles PATCH /api/habits/{id}/toggle
func (h *HabitHandler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	habit, err := h.svc.Toggle(r.Context(), id)
	if err != nil {
		var nf *apperrors.NotFoundError
		if errors.As(err, &nf) {
			h.metrics.toggles.WithLabelValues(outcomeNotFound).Inc()
		} else {
			h.metrics.toggles.WithLabelValues(outcomeError).Inc()
		}
		h.fail(w, r, err)
		return
	}

	if habit.CompletedToday {
		h.metrics.toggles.WithLabelValues(outcomeCompleted).Inc()
	} else {
		h.metrics.toggles.WithLabelValues(outcomeUndone).Inc()
	}
	writeJSON(w, http.StatusOK, habit)
}

// DeleteHabit handles DELETE /api/habits/{id}
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Remove(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// fail maps service errors onto status codes. Storage and unexpected errors
// are logged and reported without detail.
func (h *HabitHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperrors.ValidationError
	var nf *apperrors.NotFoundError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error(), verr.Field)
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error(), "")
	default:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
