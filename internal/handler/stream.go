package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/notify"
	"github.com/sakif/learning-tracker/internal/service"
	"github.com/sakif/learning-tracker/internal/task"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client → server messages.
type streamRequest struct {
	Type  string `json:"type"` // "search"
	Query string `json:"query"`
}

// Server → client messages.
type streamEvent struct {
	Type    string             `json:"type"` // "toast" | "search_results" | "error"
	Toast   *model.Toast       `json:"toast,omitempty"`
	Query   string             `json:"query,omitempty"`
	Results []model.Technology `json:"results,omitempty"`
	Message string             `json:"message,omitempty"`
}

// StreamHandler is the live channel to one browser tab.
//
// LIFECYCLE:
// One websocket per tab. Toasts published to the hub are pushed down as they
// happen. Keystrokes come up as {"type":"search","query":"..."} and go
// through a debouncer, so only the last query in the window hits the store
// and a query that is still running is cancelled when a newer one arrives.
// When the socket closes, the debouncer is stopped and the hub subscription
// released: nothing keeps running for a tab that is gone.
type StreamHandler struct {
	techs    *service.TechnologyService
	hub      *notify.Hub
	debounce time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler takes the origin check from the CORS config; nil allows
// every origin.
func NewStreamHandler(
	techs *service.TechnologyService,
	hub *notify.Hub,
	debounce time.Duration,
	checkOrigin func(r *http.Request) bool,
	logger *slog.Logger,
) *StreamHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &StreamHandler{
		techs:    techs,
		hub:      hub,
		debounce: debounce,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleStream - GET /api/ws
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// The request context ends when the handler returns; the connection's
	// own lifetime is tracked with ctx.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.hub.Subscribe()
	defer sub.Close()

	debouncer := task.NewDebouncer(ctx, h.debounce)
	defer debouncer.Stop()

	events := make(chan streamEvent, 4)
	done := make(chan struct{})

	go func() {
		defer close(done)
		// a dead writer must also unblock the reader
		defer conn.Close()
		h.writeLoop(ctx, conn, sub, events)
	}()

	h.logger.Info("stream connected", slog.String("remote", r.RemoteAddr))
	h.readLoop(ctx, conn, debouncer, events)

	cancel()
	<-done
	h.logger.Info("stream disconnected", slog.String("remote", r.RemoteAddr))
}

// readLoop runs until the client goes away.
func (h *StreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, debouncer *task.Debouncer, events chan<- streamEvent) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("stream read failed", slog.String("error", err.Error()))
			}
			return
		}

		switch req.Type {
		case "search":
			query := req.Query
			debouncer.Trigger(func(ctx context.Context) {
				h.search(ctx, query, events)
			})
		default:
			send(ctx, events, streamEvent{Type: "error", Message: "unknown message type " + req.Type})
		}
	}
}

func (h *StreamHandler) search(ctx context.Context, query string, events chan<- streamEvent) {
	results, err := h.techs.Search(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// superseded by a newer query or the socket closed
			return
		}
		send(ctx, events, streamEvent{Type: "error", Query: query, Message: "search failed"})
		return
	}
	if results == nil {
		results = []model.Technology{}
	}
	send(ctx, events, streamEvent{Type: "search_results", Query: query, Results: results})
}

// writeLoop is the only goroutine that writes to conn.
func (h *StreamHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *notify.Subscription, events <-chan streamEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var (
			ev streamEvent
			ok bool
		)
		select {
		case <-ctx.Done():
			return
		case t, open := <-sub.C:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			ev, ok = streamEvent{Type: "toast", Toast: &t}, true
		case ev, ok = <-events:
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		}
		if !ok {
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Warn("stream write failed", slog.String("error", err.Error()))
			return
		}
	}
}

// send hands ev to the writer unless ctx ends first.
func send(ctx context.Context, events chan<- streamEvent, ev streamEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
