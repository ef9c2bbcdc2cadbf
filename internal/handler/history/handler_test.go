package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/refloapp/reflo/backend/internal/model/journal"
	historyservice "github.com/refloapp/reflo/backend/internal/service/history"
	"github.com/refloapp/reflo/backend/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, store.KV) {
	t.Helper()
	kv := store.New(t.TempDir())
	handler := New(historyservice.NewService(kv))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, kv
}

func seedMood(t *testing.T, kv store.KV, date, category string, intensity int) {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"category":  category,
		"intensity": intensity,
	})
	if err != nil {
		t.Fatalf("marshal mood: %v", err)
	}
	if err := kv.Set(context.Background(), store.MoodKey(date), string(raw)); err != nil {
		t.Fatalf("seed mood: %v", err)
	}
}

func TestCalendarListsSeededDays(t *testing.T) {
	r, kv := setupRouter(t)
	ctx := context.Background()

	seedMood(t, kv, "2025-05-01", "great", 5)
	seedMood(t, kv, "2025-05-02", "bad", 2)
	if err := kv.Set(ctx, store.TopicKey("2025-05-01"), "work , family"); err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Days  []historyservice.Day  `json:"days"`
		Today historyservice.Detail `json:"today"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(body.Days))
	}
	if body.Days[0].Date != "2025-05-01" || body.Days[0].Mood != "great" || body.Days[0].Color != "green" {
		t.Fatalf("unexpected first day: %+v", body.Days[0])
	}
	if body.Today.Date != journal.DateKey(time.Now()) {
		t.Fatalf("unexpected today date: %s", body.Today.Date)
	}
}

func TestCalendarSkipsCorruptRecord(t *testing.T) {
	r, kv := setupRouter(t)

	seedMood(t, kv, "2025-05-01", "okay", 3)
	if err := kv.Set(context.Background(), store.MoodKey("2025-05-02"), "not json"); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Days []historyservice.Day `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body.Days) != 1 || body.Days[0].Date != "2025-05-01" {
		t.Fatalf("expected only the valid day, got %+v", body.Days)
	}
}

func TestDescribeCombinesMoodAndTopic(t *testing.T) {
	r, kv := setupRouter(t)

	seedMood(t, kv, "2025-05-01", "good", 4)
	if err := kv.Set(context.Background(), store.TopicKey("2025-05-01"), "a calm walk"); err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history/2025-05-01", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var detail historyservice.Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if detail.Mood == nil || detail.Mood.Mood != "good" || detail.Mood.Color != "lightgreen" {
		t.Fatalf("unexpected mood: %+v", detail.Mood)
	}
	if detail.Topic != "a calm walk" {
		t.Fatalf("unexpected topic: %q", detail.Topic)
	}
}

func TestDescribeTopicOnly(t *testing.T) {
	r, kv := setupRouter(t)

	if err := kv.Set(context.Background(), store.TopicKey("2025-05-03"), "exams"); err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history/2025-05-03", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var detail historyservice.Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if detail.Mood != nil || detail.Topic != "exams" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestDescribeUnknownDateIs404(t *testing.T) {
	r, _ := setupRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history/2025-05-09", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDescribeBadDateIs400(t *testing.T) {
	r, _ := setupRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/history/yesterday", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
