package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	journalmodel "github.com/refloapp/reflo/backend/internal/model/journal"
	"github.com/refloapp/reflo/backend/internal/service/conversation"
	"github.com/refloapp/reflo/backend/internal/service/enrichment"
	"github.com/refloapp/reflo/backend/internal/service/session"
	settingsservice "github.com/refloapp/reflo/backend/internal/service/settings"
	"github.com/refloapp/reflo/backend/internal/store"
)

type stubModel struct {
	reply string
}

func (m *stubModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *stubModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *stubModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func setupRouter(t *testing.T, withModel bool) *chi.Mux {
	t.Helper()
	kv := store.New(t.TempDir())
	sessions := session.NewService(kv)
	prefs := settingsservice.NewService(kv)

	var conv *conversation.Service
	var enrich *enrichment.Service
	if withModel {
		fake := &stubModel{reply: "That sounds like a good day."}
		var err error
		conv, err = conversation.NewService(context.Background(), fake, sessions)
		if err != nil {
			t.Fatalf("conversation.NewService err: %v", err)
		}
		enrich, err = enrichment.NewService(context.Background(), fake, sessions, kv)
		if err != nil {
			t.Fatalf("enrichment.NewService err: %v", err)
		}
	}

	handler := New(sessions, prefs, conv, enrich)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestLoadSessionAddsOpeningPrompt(t *testing.T) {
	r := setupRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/journal", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var transcript journalmodel.Transcript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(transcript.Turns) != 1 {
		t.Fatalf("expected one turn, got %d", len(transcript.Turns))
	}
	if transcript.Turns[0].Kind != journalmodel.KindPrompt || transcript.Turns[0].Reply == "" {
		t.Fatalf("unexpected opening turn: %+v", transcript.Turns[0])
	}
}

func TestLoadSessionServesSamePromptTwice(t *testing.T) {
	r := setupRouter(t, true)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/journal", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/journal", nil))

	var a, b journalmodel.Transcript
	if err := json.NewDecoder(first.Body).Decode(&a); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if err := json.NewDecoder(second.Body).Decode(&b); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(b.Turns) != 1 || b.Turns[0].ID != a.Turns[0].ID {
		t.Fatalf("opening prompt regenerated: %+v vs %+v", a.Turns, b.Turns)
	}
}

func TestSubmitAppendsExchange(t *testing.T) {
	r := setupRouter(t, true)

	payload, _ := json.Marshal(map[string]string{"text": "went for a swim"})
	req := httptest.NewRequest(http.MethodPost, "/journal/turns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var transcript journalmodel.Transcript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	last := transcript.Turns[len(transcript.Turns)-1]
	if last.User != "went for a swim" || last.Reply != "That sounds like a good day." {
		t.Fatalf("unexpected exchange: %+v", last)
	}
}

func TestSubmitBlankTextRejected(t *testing.T) {
	r := setupRouter(t, true)

	payload := []byte(`{"text":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/journal/turns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSubmitWithoutModelUnavailable(t *testing.T) {
	r := setupRouter(t, false)

	payload := []byte(`{"text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/journal/turns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestCloseAcceptsSessionEnd(t *testing.T) {
	r := setupRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/journal/close", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
}

func TestGreetingReturnsTextAndSettings(t *testing.T) {
	r := setupRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/greeting", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["greeting"] == "" || body["language"] != "en" || body["theme"] != "dark" {
		t.Fatalf("unexpected body: %v", body)
	}
}
