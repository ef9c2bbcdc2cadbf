package journal

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/refloapp/reflo/backend/internal/service/conversation"
)

// WebSocketHandler carries the chat over a single socket: the client sends
// entry frames, the server pushes reply deltas and the updated transcript.
type WebSocketHandler struct {
	conv     *conversation.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the socket handler.
func NewWebSocketHandler(conv *conversation.Service) *WebSocketHandler {
	return &WebSocketHandler{
		conv: conv,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes wires the socket endpoint.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/journal/ws", h.handleWebSocket)
}

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingFrame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.conv == nil {
		http.Error(w, "journaling replies unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] journal socket opened from %s", r.RemoteAddr)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "entry":
			h.handleEntry(conn, r, frame.Text)
		case "ping":
			h.send(conn, outgoingFrame{Type: "pong"})
		default:
			h.send(conn, outgoingFrame{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (h *WebSocketHandler) handleEntry(conn *websocket.Conn, r *http.Request, text string) {
	transcript, err := h.conv.SubmitStream(r.Context(), text, func(chunk string) {
		h.send(conn, outgoingFrame{Type: "delta", Data: chunk})
	})

	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		h.send(conn, outgoingFrame{Type: "error", Error: "text is required"})
	case errors.Is(err, conversation.ErrReplyPending):
		h.send(conn, outgoingFrame{Type: "error", Error: "a reply is already pending"})
	case err != nil:
		log.Printf("[ws] entry failed: %v", err)
		h.send(conn, outgoingFrame{Type: "error", Error: "failed to get a reply, please try again"})
	default:
		h.send(conn, outgoingFrame{Type: "transcript", Data: transcript})
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, frame outgoingFrame) {
	frame.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
