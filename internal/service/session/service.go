// Package session owns the daily transcript lifecycle: one transcript per
// calendar day, discarded on the first load after a day rollover.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/refloapp/reflo/backend/internal/model/journal"
	"github.com/refloapp/reflo/backend/internal/store"
)

// Service loads and persists the current day's transcript. The stored
// transcript is always written whole; there are no partial updates.
type Service struct {
	kv  store.KV
	now func() time.Time
}

// NewService creates the session manager on top of the shared store.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv, now: time.Now}
}

// Today returns the canonical date string for the current session day.
func (s *Service) Today() string {
	return journal.DateKey(s.now())
}

// Hour returns the local wall-clock hour, used to pick the greeting bucket.
func (s *Service) Hour() int {
	return s.now().Hour()
}

// Load reads the session marker and stored transcript. When the marker does
// not match today the old transcript is dropped, the stored entry cleared and
// the marker advanced; the caller gets a fresh empty transcript. A transcript
// that fails to parse is treated as empty rather than failing the load.
func (s *Service) Load(ctx context.Context) (journal.Transcript, error) {
	today := s.Today()

	marker, err := s.kv.Get(ctx, store.KeyLastOpened)
	if err != nil && err != store.ErrNotFound {
		return journal.Transcript{}, fmt.Errorf("read session marker: %w", err)
	}

	if marker != today {
		if err := s.kv.Delete(ctx, store.KeyTranscript); err != nil {
			return journal.Transcript{}, fmt.Errorf("clear stale transcript: %w", err)
		}
		if err := s.kv.Set(ctx, store.KeyLastOpened, today); err != nil {
			return journal.Transcript{}, fmt.Errorf("write session marker: %w", err)
		}
		if marker != "" {
			log.Printf("[session] rolled over from %s to %s", marker, today)
		}
		return journal.Transcript{Date: today}, nil
	}

	raw, err := s.kv.Get(ctx, store.KeyTranscript)
	if err == store.ErrNotFound {
		return journal.Transcript{Date: today}, nil
	}
	if err != nil {
		return journal.Transcript{}, fmt.Errorf("read transcript: %w", err)
	}

	var transcript journal.Transcript
	if err := json.Unmarshal([]byte(raw), &transcript); err != nil {
		log.Printf("[session] stored transcript unparsable, starting empty: %v", err)
		return journal.Transcript{Date: today}, nil
	}
	transcript.Date = today
	return transcript, nil
}

// Save serializes the full transcript and overwrites the stored entry.
// Called after every mutation; last writer wins.
func (s *Service) Save(ctx context.Context, transcript journal.Transcript) error {
	if transcript.Date == "" {
		transcript.Date = s.Today()
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyTranscript, string(data)); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
