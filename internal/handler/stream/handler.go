// Package stream delivers journal replies over Server-Sent Events so the
// entry screen can render the reply as it is generated.
package stream

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/refloapp/reflo/backend/internal/service/conversation"
	"github.com/refloapp/reflo/backend/pkg/utils"
)

// Handler manages streaming reply delivery.
type Handler struct {
	conv *conversation.Service
}

// New creates a stream handler.
func New(conv *conversation.Service) *Handler {
	return &Handler{conv: conv}
}

// StreamResponse is one streaming chunk.
type StreamResponse struct {
	Event    string `json:"event"`
	Content  string `json:"content,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HandleStreamRequest streams the reply for one journal entry and persists
// the completed exchange.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start"})

	transcript, err := h.conv.SubmitStream(ctx, userMessage, func(chunk string) {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "delta", Content: chunk})
	})
	if err != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "error", Error: fmt.Sprintf("reply generation failed: %v", err)})
		return err
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "end", Finished: true})
	log.Printf("[stream] completed reply, transcript now %d turns", len(transcript.Turns))
	return nil
}
