package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// maxBoardBytes caps a saved board payload.
const maxBoardBytes = 1 << 20

// BoardHandler handles board API requests.
type BoardHandler struct {
	registry        *application.Registry
	getBoard        *queries.GetBoardHandler
	personWeekStats *queries.PersonWeekStatsHandler
	nextTasks       *queries.NextTasksHandler
	listEntries     *queries.ListEntriesHandler
	saveBoard       *commands.SaveBoardHandler
	removeDoneTasks *commands.RemoveDoneTasksHandler
	weeklyRefresh   *commands.WeeklyRefreshHandler
	logger          *slog.Logger
}

// NewBoardHandler creates the handler and its command and query handlers.
func NewBoardHandler(registry *application.Registry, logger *slog.Logger) *BoardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardHandler{
		registry:        registry,
		getBoard:        queries.NewGetBoardHandler(registry),
		personWeekStats: queries.NewPersonWeekStatsHandler(registry),
		nextTasks:       queries.NewNextTasksHandler(registry),
		listEntries:     queries.NewListEntriesHandler(registry),
		saveBoard:       commands.NewSaveBoardHandler(registry),
		removeDoneTasks: commands.NewRemoveDoneTasksHandler(registry),
		weeklyRefresh:   commands.NewWeeklyRefreshHandler(registry),
		logger:          logger,
	}
}

// ListEntries handles GET /api/v1/entries
func (h *BoardHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.listEntries.Handle(r.Context())
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetBoard handles GET /api/v1/boards/{entryID}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := h.getBoard.Handle(r.Context(), queries.GetBoardQuery{EntryID: r.PathValue("entryID")})
	if err != nil {
		h.fail(w, r, "load board", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// SaveBoard handles PUT /api/v1/boards/{entryID}
func (h *BoardHandler) SaveBoard(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBoard(r.Body)
	if err != nil {
		writeError(w, ErrInvalidPayload.withMessage(err.Error()))
		return
	}

	result, err := h.saveBoard.Handle(r.Context(), commands.SaveBoardCommand{
		EntryID: r.PathValue("entryID"),
		Board:   raw,
	})
	if err != nil {
		h.fail(w, r, "save board", err)
		return
	}
	writeJSON(w, http.StatusOK, result.Board)
}

// RemoveDoneTasks handles POST /api/v1/boards/{entryID}/cleanup
func (h *BoardHandler) RemoveDoneTasks(w http.ResponseWriter, r *http.Request) {
	result, err := h.removeDoneTasks.Handle(r.Context(), commands.RemoveDoneTasksCommand{EntryID: r.PathValue("entryID")})
	if err != nil {
		h.fail(w, r, "remove done tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// WeeklyRefresh handles POST /api/v1/boards/{entryID}/refresh
func (h *BoardHandler) WeeklyRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.weeklyRefresh.Handle(r.Context(), commands.WeeklyRefreshCommand{EntryID: r.PathValue("entryID")})
	if err != nil {
		h.fail(w, r, "weekly refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PersonWeekStats handles GET /api/v1/boards/{entryID}/people/{personID}/week
func (h *BoardHandler) PersonWeekStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.personWeekStats.Handle(r.Context(), queries.PersonWeekStatsQuery{
		EntryID:    r.PathValue("entryID"),
		PersonID:   r.PathValue("personID"),
		WeekOffset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.fail(w, r, "person week stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// NextTasks handles GET /api/v1/boards/{entryID}/next
func (h *BoardHandler) NextTasks(w http.ResponseWriter, r *http.Request) {
	query := queries.NextTasksQuery{
		EntryID:  r.PathValue("entryID"),
		PersonID: r.URL.Query().Get("person_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, ErrBadRequest.withMessage("limit must be an integer"))
			return
		}
		query.Limit = &limit
	}

	summary, err := h.nextTasks.Handle(r.Context(), query)
	if err != nil {
		h.fail(w, r, "next tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Calendar handles GET /api/v1/boards/{entryID}/calendar.ics
func (h *BoardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.Get(r.PathValue("entryID"))
	if err != nil {
		h.fail(w, r, "calendar feed", err)
		return
	}
	b, err := store.Load(r.Context())
	if err != nil {
		h.fail(w, r, "calendar feed", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := writeCalendar(w, store.EntryID(), store.Title(), b, store.Today()); err != nil {
		h.logger.Error("failed to encode calendar", "entry_id", store.EntryID(), "error", err)
	}
}

func (h *BoardHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"operation", op,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, apiErr)
}

// decodeBoard reads an untrusted board document. Anything but a JSON object
// is rejected.
func decodeBoard(body io.Reader) (domain.RawBoard, error) {
	var doc map[string]any
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, maxBoardBytes))
	if err := dec.Decode(&doc); err != nil {
		return domain.RawBoard{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if doc == nil {
		return domain.RawBoard{}, fmt.Errorf("%w: null document", domain.ErrInvalidPayload)
	}
	return domain.RawBoardFromMap(doc), nil
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
