// Package history reads the date-scoped mood and topic records the
// enrichment pipeline writes, shaping them for the calendar screen. It never
// writes those records itself.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/refloapp/reflo/backend/internal/analysis/mood"
	"github.com/refloapp/reflo/backend/internal/model/journal"
	"github.com/refloapp/reflo/backend/internal/store"
)

// Day is one calendar entry: the date, its mood classification and the
// marker color derived from the category.
type Day struct {
	Date      string    `json:"date"`
	Mood      string    `json:"mood"`
	Intensity int       `json:"intensity"`
	Color     string    `json:"color"`
}

// Detail combines the mood and topic records for a single date. Either part
// can be absent when an enrichment call failed or never ran.
type Detail struct {
	Date  string `json:"date"`
	Mood  *Day   `json:"mood,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// Service aggregates enrichment records for display.
type Service struct {
	kv store.KV
}

// NewService creates the history aggregator on top of the shared store.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv}
}

// Calendar lists every day that has a mood record, sorted by date. Records
// that fail to parse are skipped with a log line, never fatal.
func (s *Service) Calendar(ctx context.Context) ([]Day, error) {
	keys, err := s.kv.Keys(ctx, store.MoodPrefix)
	if err != nil {
		return nil, fmt.Errorf("list mood records: %w", err)
	}

	days := make([]Day, 0, len(keys))
	for _, key := range keys {
		raw, err := s.kv.Get(ctx, key)
		if err != nil {
			log.Printf("[history] skipping unreadable record %s: %v", key, err)
			continue
		}

		var classification mood.Classification
		if err := json.Unmarshal([]byte(raw), &classification); err != nil {
			log.Printf("[history] skipping unparsable record %s: %v", key, err)
			continue
		}

		days = append(days, Day{
			Date:      store.DateOfKey(key, store.MoodPrefix),
			Mood:      string(classification.Category),
			Intensity: classification.Intensity,
			Color:     mood.Color(classification.Category),
		})
	}
	return days, nil
}

// Describe returns the mood and topic for one date. Missing records leave
// the corresponding field empty rather than erroring.
func (s *Service) Describe(ctx context.Context, date string) (Detail, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Detail{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	detail := Detail{Date: date}

	if raw, err := s.kv.Get(ctx, store.MoodKey(date)); err == nil {
		var classification mood.Classification
		if err := json.Unmarshal([]byte(raw), &classification); err != nil {
			log.Printf("[history] unparsable mood record for %s: %v", date, err)
		} else {
			detail.Mood = &Day{
				Date:      date,
				Mood:      string(classification.Category),
				Intensity: classification.Intensity,
				Color:     mood.Color(classification.Category),
			}
		}
	}

	if topic, err := s.kv.Get(ctx, store.TopicKey(date)); err == nil {
		detail.Topic = topic
	}

	return detail, nil
}

// DescribeToday is the default selection when the calendar opens.
func (s *Service) DescribeToday(ctx context.Context) (Detail, error) {
	return s.Describe(ctx, journal.DateKey(time.Now()))
}
