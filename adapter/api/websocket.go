package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/eventbus"
)

// Websocket message types.
const (
	MessageGetBoard    = "get_board"
	MessageSaveBoard   = "save_board"
	MessageListEntries = "list_entries"
	MessageResult      = "result"
	MessageEvent       = "event"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageBytes = maxBoardBytes
	sendBuffer      = 16
)

// ErrUnknownCommand answers websocket messages of an unknown type.
var ErrUnknownCommand = &APIError{
	Status:  http.StatusBadRequest,
	Code:    "unknown_command",
	Message: "Unknown message type",
}

type wsRequest struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	EntryID string `json:"entry_id,omitempty"`
	Board   any    `json:"board,omitempty"`
}

type wsResponse struct {
	ID      int       `json:"id,omitempty"`
	Type    string    `json:"type"`
	Success bool      `json:"success"`
	Result  any       `json:"result,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type wsEvent struct {
	Type  string                 `json:"type"`
	Event sonic.NoCopyRawMessage `json:"event"`
}

// Hub keeps the live board connections. Each connection is bound to the
// entry in its URL and receives a push whenever that board is saved. It is
// an eventbus.EventConsumer for board.updated.
type Hub struct {
	handler  *BoardHandler
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub answering requests through handler.
func NewHub(handler *BoardHandler, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeWS handles GET /api/v1/boards/{entryID}/ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entryID")
	if _, err := h.handler.registry.Get(entryID); err != nil {
		writeError(w, toAPIError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "entry_id", entryID, "error", err)
		return
	}

	c := &client{hub: h, conn: conn, entryID: entryID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	c.readPump(r.Context())
}

// EventTypes implements eventbus.EventConsumer.
func (h *Hub) EventTypes() []string {
	return []string{domain.RoutingKeyBoardUpdated}
}

// Handle pushes the event to every connection watching its entry.
func (h *Hub) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	msg, err := sonic.Marshal(wsEvent{Type: MessageEvent, Event: sonic.NoCopyRawMessage(event.Payload)})
	if err != nil {
		return err
	}

	h.mu.RLock()
	var targets []*client
	for c := range h.clients {
		if c.entryID == event.AggregateID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(msg)
	}
	return nil
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "entry_id", c.entryID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("websocket client disconnected", "entry_id", c.entryID)
}

// dispatch answers one request message.
func (h *Hub) dispatch(ctx context.Context, entryID string, data []byte) wsResponse {
	var req wsRequest
	if err := sonic.Unmarshal(data, &req); err != nil {
		return wsResponse{Type: MessageResult, Error: ErrBadRequest.withMessage("message must be a JSON object")}
	}
	resp := wsResponse{ID: req.ID, Type: MessageResult}
	if req.EntryID != "" && req.EntryID != entryID {
		resp.Error = ErrBadRequest.withMessage("connection is bound to entry " + entryID)
		return resp
	}

	var (
		result any
		err    error
	)
	switch req.Type {
	case MessageGetBoard:
		result, err = h.handler.getBoard.Handle(ctx, queries.GetBoardQuery{EntryID: entryID})
	case MessageSaveBoard:
		doc, ok := req.Board.(map[string]any)
		if !ok {
			resp.Error = ErrInvalidPayload
			return resp
		}
		var saved *commands.SaveBoardResult
		saved, err = h.handler.saveBoard.Handle(ctx, commands.SaveBoardCommand{
			EntryID: entryID,
			Board:   domain.RawBoardFromMap(doc),
		})
		if err == nil {
			result = saved.Board
		}
	case MessageListEntries:
		var entries any
		entries, err = h.handler.listEntries.Handle(ctx)
		result = map[string]any{"entries": entries}
	default:
		resp.Error = ErrUnknownCommand.withMessage("unknown message type " + req.Type)
		return resp
	}

	if err != nil {
		apiErr := toAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			h.logger.Error("websocket command failed", "type", req.Type, "entry_id", entryID, "error", err)
		}
		resp.Error = apiErr
		return resp
	}
	resp.Success = true
	resp.Result = result
	return resp
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	entryID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue hands msg to the write pump. A client that cannot keep up is
// disconnected.
func (c *client) enqueue(msg []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- msg:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.hub.logger.Warn("websocket client too slow, disconnecting", "entry_id", c.entryID)
		c.hub.unregister(c)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) readPump(ctx context.Context) {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "entry_id", c.entryID, "error", err)
			}
			return
		}

		msg, err := sonic.Marshal(c.hub.dispatch(ctx, c.entryID, data))
		if err != nil {
			c.hub.logger.Error("failed to encode websocket response", "error", err)
			continue
		}
		c.enqueue(msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
