package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// wednesday is the fixed "now" of every store in these tests.
var wednesday = time.Date(2026, time.October, 21, 10, 0, 0, 0, time.UTC)

type memoryRepo struct {
	mu   sync.Mutex
	docs map[string]*domain.Document
}

func (r *memoryRepo) Load(_ context.Context, entryID string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[entryID], nil
}

func (r *memoryRepo) Save(_ context.Context, entryID string, b domain.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[entryID] = &domain.Document{Version: domain.CurrentSchemaVersion, Board: b.ToRaw()}
	return nil
}

type testEnv struct {
	server *Server
	bus    *eventbus.InProcessEventBus
	hub    *Hub
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	repo := &memoryRepo{docs: make(map[string]*domain.Document)}
	bus := eventbus.NewInProcessEventBus(nil)
	notifier := application.NotifierFunc(func(ctx context.Context, event *domain.BoardUpdated) {
		_ = bus.PublishDomainEvent(ctx, event)
	})
	clock := application.WithClock(func() time.Time { return wednesday })

	home := application.NewStore(application.StoreConfig{
		EntryID:  "home",
		Title:    "Home",
		Members:  []domain.Person{{ID: "p1", Name: "Alex"}, {ID: "p2", Name: "Sam"}},
		Chores:   []string{"Trash"},
		Location: time.UTC,
	}, repo, notifier, nil, clock)
	cabin := application.NewStore(application.StoreConfig{EntryID: "cabin", Title: "Cabin", Location: time.UTC}, repo, notifier, nil, clock)

	handler := NewBoardHandler(application.NewRegistry(home, cabin), nil)
	hub := NewHub(handler, nil)
	bus.RegisterConsumer(hub)

	return &testEnv{
		server: NewServer(DefaultServerConfig(), ServerDeps{Handler: handler, Hub: hub}),
		bus:    bus,
		hub:    hub,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Health(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", result["status"])
}

func TestServer_HealthRegistry(t *testing.T) {
	env := setupTestServer(t)
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(func(context.Context) error {
		return assert.AnError
	}))
	server := NewServer(DefaultServerConfig(), ServerDeps{Handler: env.server.handler, Health: health})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Routes(t *testing.T) {
	env := setupTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/api/v1/entries"},
		{http.MethodGet, "/api/v1/boards/home"},
		{http.MethodPost, "/api/v1/boards/home/cleanup"},
		{http.MethodPost, "/api/v1/boards/home/refresh"},
		{http.MethodGet, "/api/v1/boards/home/people/p1/week"},
		{http.MethodGet, "/api/v1/boards/home/next"},
		{http.MethodGet, "/api/v1/boards/home/calendar.ics"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := env.do(t, route.method, route.path, "")
			assert.Equal(t, http.StatusOK, rec.Code, "route %s %s", route.method, route.path)
		})
	}
}

func TestServer_CorrelationID(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, "corr-42")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "corr-42", rec.Header().Get(CorrelationHeader))

	rec = env.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(CorrelationHeader))
}

func TestBoardHandler_ListEntries(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/entries", "")

	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[map[string][]application.Entry](t, rec)
	assert.Equal(t, []application.Entry{
		{EntryID: "cabin", Title: "Cabin"},
		{EntryID: "home", Title: "Home"},
	}, result["entries"])
}

func TestBoardHandler_GetBoard(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/boards/home", "")

	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[domain.Board](t, rec)
	require.Len(t, b.People, 2)
	require.Len(t, b.Tasks, 1)
	assert.Equal(t, "Trash", b.Tasks[0].Title)
	assert.Equal(t, domain.ColumnMonday, b.Tasks[0].Column)
}

func TestBoardHandler_SaveBoard(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPut, "/api/v1/boards/home", `{
		"people": [{"id": "p1", "name": "Alex"}],
		"tasks": [
			{"title": "  Dishes  ", "column": "thursday", "assignees": ["p1", "ghost"]},
			{"title": "Mystery", "column": "someday"}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[domain.Board](t, rec)
	require.Len(t, b.Tasks, 2)
	dishes := taskByTitle(t, b, "Dishes")
	assert.Equal(t, []string{"p1"}, dishes.Assignees)
	assert.NotEmpty(t, dishes.ID)
	assert.Equal(t, domain.ColumnBacklog, taskByTitle(t, b, "Mystery").Column)

	rec = env.do(t, http.MethodGet, "/api/v1/boards/home", "")
	stored := decode[domain.Board](t, rec)
	assert.Equal(t, dishes.ID, taskByTitle(t, stored, "Dishes").ID)
}

func taskByTitle(t *testing.T, b domain.Board, title string) domain.Task {
	t.Helper()
	for _, task := range b.Tasks {
		if task.Title == title {
			return task
		}
	}
	require.Failf(t, "task not found", "no task titled %q", title)
	return domain.Task{}
}

func TestBoardHandler_SaveBoardRejectsNonObjects(t *testing.T) {
	env := setupTestServer(t)

	for _, body := range []string{`[1, 2]`, `null`, `nope`, `"board"`} {
		t.Run(body, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/v1/boards/home", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			result := decode[errorBody](t, rec)
			assert.Equal(t, "invalid_payload", result.Error.Code)
		})
	}
}

func TestBoardHandler_UnknownEntry(t *testing.T) {
	env := setupTestServer(t)

	paths := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/boards/attic", ""},
		{http.MethodPut, "/api/v1/boards/attic", `{}`},
		{http.MethodPost, "/api/v1/boards/attic/cleanup", ""},
		{http.MethodPost, "/api/v1/boards/attic/refresh", ""},
		{http.MethodGet, "/api/v1/boards/attic/people/p1/week", ""},
		{http.MethodGet, "/api/v1/boards/attic/next", ""},
		{http.MethodGet, "/api/v1/boards/attic/calendar.ics", ""},
		{http.MethodGet, "/api/v1/boards/attic/ws", ""},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := env.do(t, p.method, p.path, p.body)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			result := decode[errorBody](t, rec)
			assert.Equal(t, "entry_not_found", result.Error.Code)
		})
	}
}

func TestBoardHandler_RemoveDoneTasks(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodPut, "/api/v1/boards/home", `{"tasks": [
		{"title": "A", "column": "done"},
		{"title": "B", "column": "done"},
		{"title": "C", "column": "friday"}
	]}`)

	rec := env.do(t, http.MethodPost, "/api/v1/boards/home/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 2}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/boards/home/cleanup", "")
	assert.JSONEq(t, `{"removed": 0}`, rec.Body.String())
}

func TestBoardHandler_WeeklyRefresh(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodPut, "/api/v1/boards/home", `{"tasks": [
		{"title": "A", "column": "done"},
		{"title": "B", "column": "backlog"}
	]}`)

	rec := env.do(t, http.MethodPost, "/api/v1/boards/home/refresh", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"task_count": 1}`, rec.Body.String())
}

func TestBoardHandler_PersonWeekStats(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/boards/home/people/p1/week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.WeekStats](t, rec)
	assert.Equal(t, "Alex", stats.PersonName)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, domain.Date{Year: 2026, Month: time.October, Day: 19}, stats.WeekStart)

	rec = env.do(t, http.MethodGet, "/api/v1/boards/home/people/p1/week?offset=1", "")
	stats = decode[domain.WeekStats](t, rec)
	assert.Equal(t, 1, stats.WeekOffset)
	assert.Equal(t, 0, stats.Total)
}

func TestBoardHandler_NextTasks(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodPut, "/api/v1/boards/home", `{
		"people": [{"id": "p1", "name": "Alex"}, {"id": "p2", "name": "Sam"}],
		"tasks": [
			{"title": "Past", "column": "monday", "assignees": ["p1"]},
			{"title": "Thu", "column": "thursday", "assignees": ["p1"]},
			{"title": "Fri", "column": "friday", "assignees": ["p2"]},
			{"title": "Sat", "column": "saturday", "assignees": ["p1"]},
			{"title": "Sun", "column": "sunday", "assignees": ["p1"]}
		]
	}`)

	rec := env.do(t, http.MethodGet, "/api/v1/boards/home/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[domain.UpcomingSummary](t, rec)
	assert.Equal(t, []string{"Thu", "Fri", "Sat"}, summary.Titles)

	rec = env.do(t, http.MethodGet, "/api/v1/boards/home/next?limit=5&person_id=p1", "")
	summary = decode[domain.UpcomingSummary](t, rec)
	assert.Equal(t, []string{"Thu", "Sat", "Sun"}, summary.Titles)

	rec = env.do(t, http.MethodGet, "/api/v1/boards/home/next?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoardHandler_Calendar(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodPut, "/api/v1/boards/home", `{
		"people": [{"id": "p1", "name": "Alex"}],
		"tasks": [
			{"id": "t1", "title": "Dishes", "column": "thursday", "assignees": ["p1"]},
			{"id": "t2", "title": "Finished", "column": "done"},
			{"id": "t3", "title": "Someday", "column": "backlog"}
		]
	}`)

	rec := env.do(t, http.MethodGet, "/api/v1/boards/home/calendar.ics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Dishes")
	assert.Contains(t, body, "20261022")
	assert.Contains(t, body, "UID:t1@home")
	assert.Contains(t, body, "Assigned to Alex")
	assert.NotContains(t, body, "Finished")
	assert.NotContains(t, body, "Someday")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
}
