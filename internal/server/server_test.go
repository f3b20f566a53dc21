package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/streaks/internal/clock"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/models"
	"github.com/julianstephens/streaks/internal/service"
	"github.com/julianstephens/streaks/internal/storage"
)

// setupTestServer creates a server over a fresh JSON store
func setupTestServer(t *testing.T, cfg Config) (*Server, *storage.JSONStore, *clock.Fixed) {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "habits.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	clk := clock.NewFixed(models.MustParseDate("2024-01-10"))
	return New(service.New(store, clk), cfg), store, clk
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	return cfg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeHabit(t *testing.T, w *httptest.ResponseRecorder) models.Habit {
	t.Helper()
	var h models.Habit
	if err := json.NewDecoder(w.Body).Decode(&h); err != nil {
		t.Fatalf("failed to decode habit: %v (body %q)", err, w.Body.String())
	}
	return h
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("failed to decode error body: %v (body %q)", err, w.Body.String())
	}
	return e
}

func TestListHabits_EmptyIsArray(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	w := do(t, srv.Handler(), "GET", "/api/habits", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("Expected [], got %s", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
}

func TestCreateHabit_Success(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	w := do(t, srv.Handler(), "POST", "/api/habits", `{"name":"  Drink water  "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if raw["name"] != "Drink water" {
		t.Errorf("Expected trimmed name, got %v", raw["name"])
	}
	if raw["streak"] != float64(0) || raw["completed_today"] != false {
		t.Errorf("Expected fresh habit, got %v", raw)
	}
	if v, ok := raw["last_completed_date"]; !ok || v != nil {
		t.Errorf("Expected last_completed_date: null, got %v (present %v)", v, ok)
	}
	if id, _ := raw["id"].(string); id == "" {
		t.Error("Expected an id")
	}
}

func TestCreateHabit_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{name: "empty name", body: `{"name":""}`, wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "whitespace name", body: `{"name":"   "}`, wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "missing name", body: `{}`, wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "51 characters", body: fmt.Sprintf(`{"name":%q}`, strings.Repeat("x", 51)), wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "malformed json", body: `{"name":`, wantCode: http.StatusBadRequest},
		{name: "wrong type", body: `{"name":42}`, wantCode: http.StatusBadRequest},
		{name: "too large", body: fmt.Sprintf(`{"name":%q}`, strings.Repeat("x", 8<<10)), wantCode: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store, _ := setupTestServer(t, testConfig())

			w := do(t, srv.Handler(), "POST", "/api/habits", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			e := decodeError(t, w)
			if e.Error == "" {
				t.Error("Expected an error message")
			}
			if e.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, e.Field)
			}

			habits, _ := store.ListHabits(context.Background())
			if len(habits) != 0 {
				t.Errorf("Rejected request created habits: %+v", habits)
			}
		})
	}
}

func TestCreateHabit_EmptyBody(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	req := httptest.NewRequest("POST", "/api/habits", http.NoBody)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateHabit_FiftyCharactersAccepted(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	name := strings.Repeat("y", 50)
	w := do(t, srv.Handler(), "POST", "/api/habits", fmt.Sprintf(`{"name":%q}`, name))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if h := decodeHabit(t, w); h.Name != name {
		t.Errorf("Expected name preserved, got %q", h.Name)
	}
}

func TestToggleHabit(t *testing.T) {
	srv, store, _ := setupTestServer(t, testConfig())
	day := models.MustParseDate("2024-01-09")
	if err := store.AddHabit(context.Background(), models.Habit{ID: "h1", Name: "Run", Streak: 3, LastCompletedDate: &day}); err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	w := do(t, srv.Handler(), "PATCH", "/api/habits/h1/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"last_completed_date":"2024-01-10"`) {
		t.Errorf("Expected date in wire format, got %s", w.Body.String())
	}
	h := decodeHabit(t, w)
	if h.Streak != 4 || !h.CompletedToday {
		t.Errorf("Expected streak 4 completed, got %+v", h)
	}

	// Undo on the same day
	w = do(t, srv.Handler(), "PATCH", "/api/habits/h1/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	h = decodeHabit(t, w)
	if h.Streak != 3 || h.CompletedToday || h.LastCompletedDate != nil {
		t.Errorf("Expected streak 3, not completed, null date; got %+v", h)
	}
}

func TestToggleHabit_NotFound(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	w := do(t, srv.Handler(), "PATCH", "/api/habits/nope/toggle", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
	if e := decodeError(t, w); !strings.Contains(e.Error, "nope") {
		t.Errorf("Expected error to name the id, got %q", e.Error)
	}
}

func TestToggleHabit_WrongMethod(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	w := do(t, srv.Handler(), "POST", "/api/habits/h1/toggle", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestDeleteHabit(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())
	h := srv.Handler()

	created := decodeHabit(t, do(t, h, "POST", "/api/habits", `{"name":"Read"}`))
	other := decodeHabit(t, do(t, h, "POST", "/api/habits", `{"name":"Run"}`))

	w := do(t, h, "DELETE", "/api/habits/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}

	w = do(t, h, "DELETE", "/api/habits/does-not-exist", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for unknown id, got %d", w.Code)
	}

	var habits []models.Habit
	w = do(t, h, "GET", "/api/habits", "")
	if err := json.NewDecoder(w.Body).Decode(&habits); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(habits) != 1 || habits[0].ID != other.ID {
		t.Errorf("Expected only %s to remain, got %+v", other.ID, habits)
	}
}

func TestListHabits_CreationOrder(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())
	h := srv.Handler()

	names := []string{"Zebra", "Apple", "Mango"}
	for _, name := range names {
		if w := do(t, h, "POST", "/api/habits", fmt.Sprintf(`{"name":%q}`, name)); w.Code != http.StatusCreated {
			t.Fatalf("Create %s: status %d", name, w.Code)
		}
	}

	var habits []models.Habit
	w := do(t, h, "GET", "/api/habits", "")
	if err := json.NewDecoder(w.Body).Decode(&habits); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	for i, name := range names {
		if habits[i].Name != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, habits[i].Name)
		}
	}
}

// stubService returns canned errors.
type stubService struct {
	err   error
	panic bool
}

func (s stubService) List(context.Context) ([]models.Habit, error) {
	if s.panic {
		panic("boom")
	}
	return nil, s.err
}
func (s stubService) Create(context.Context, string) (models.Habit, error) {
	return models.Habit{}, s.err
}
func (s stubService) Toggle(context.Context, string) (models.Habit, error) {
	return models.Habit{}, s.err
}
func (s stubService) Remove(context.Context, string) error { return s.err }

func TestStorageFailureIsOpaque500(t *testing.T) {
	cause := &apperrors.StorageError{Op: "list", Err: errors.New("database is locked at /secret/path")}
	srv := New(stubService{err: cause}, testConfig())

	requests := []struct{ method, path, body string }{
		{"GET", "/api/habits", ""},
		{"POST", "/api/habits", `{"name":"Run"}`},
		{"PATCH", "/api/habits/x/toggle", ""},
		{"DELETE", "/api/habits/x", ""},
	}
	for _, rq := range requests {
		t.Run(rq.method, func(t *testing.T) {
			w := do(t, srv.Handler(), rq.method, rq.path, rq.body)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("Expected status 500, got %d", w.Code)
			}
			if strings.Contains(w.Body.String(), "secret") {
				t.Errorf("500 body leaks the cause: %s", w.Body.String())
			}
			if e := decodeError(t, w); e.Error != "internal server error" {
				t.Errorf("Unexpected error message %q", e.Error)
			}
		})
	}
}

func TestPanicRecovered(t *testing.T) {
	srv := New(stubService{panic: true}, testConfig())

	w := do(t, srv.Handler(), "GET", "/api/habits", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	w := do(t, srv.Handler(), "GET", "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", w.Code, w.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	srv, store, _ := setupTestServer(t, testConfig())
	h := srv.Handler()
	if err := store.AddHabit(context.Background(), models.Habit{ID: "h1", Name: "Run"}); err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	do(t, h, "PATCH", "/api/habits/h1/toggle", "")
	do(t, h, "PATCH", "/api/habits/missing/toggle", "")

	w := do(t, h, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`streaks_toggles_total{outcome="completed"} 1`,
		`streaks_toggles_total{outcome="not_found"} 1`,
		`streaks_http_requests_total{method="PATCH",route="/api/habits/{id}/toggle",status="200"} 1`,
		`streaks_http_requests_total{method="PATCH",route="/api/habits/{id}/toggle",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	srv, _, _ := setupTestServer(t, cfg)
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		if w := do(t, h, "GET", "/api/habits", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do(t, h, "GET", "/api/habits", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// Health checks are not limited
	if w := do(t, h, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("Expected /health to bypass the limiter, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	req := httptest.NewRequest("OPTIONS", "/api/habits/h1/toggle", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Expected Access-Control-Allow-Origin header on preflight")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, _, _ := setupTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	resp, err := http.Post(url+"/api/habits", "application/json", bytes.NewBufferString(`{"name":"Run"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunFailsOnBadAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "256.256.256.256:99999"
	srv, _, _ := setupTestServer(t, cfg)

	if err := srv.Run(context.Background()); err == nil {
		t.Error("Expected Run to fail for an invalid address")
	}
}
