// Package store wraps the on-disk key-value store every other component
// persists through: settings, the day's transcript, the session marker and
// the per-day mood/topic records.
package store

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Well-known keys. Date-scoped records are built via MoodKey/TopicKey.
const (
	KeyTheme      = "settings:theme"
	KeyLanguage   = "settings:language"
	KeyTranscript = "journal:transcript"
	KeyLastOpened = "journal:lastOpened"

	MoodPrefix  = "mood:"
	TopicPrefix = "topic:"
)

// MoodKey returns the mood-record key for a canonical date string.
func MoodKey(date string) string {
	return MoodPrefix + date
}

// TopicKey returns the topic-record key for a canonical date string.
func TopicKey(date string) string {
	return TopicPrefix + date
}

// DateOfKey strips a record prefix, returning the canonical date string.
func DateOfKey(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}

// KV is the persistence contract shared by all services. Values are opaque
// strings; JSON payloads are the caller's concern. Last writer wins.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store implements KV on top of diskv, one file per key grouped by namespace.
type Store struct {
	d *diskv.Diskv
}

// New opens (creating if needed) a store rooted at basePath.
func New(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    namespaceTransform,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// namespaceTransform files each key under its namespace directory, so
// "mood:2025-05-01" lands in <base>/mood/.
func namespaceTransform(key string) []string {
	if i := strings.Index(key, ":"); i > 0 {
		return []string{key[:i]}
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(val), nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	return s.d.Write(key, []byte(value))
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.d.Erase(key); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Keys lists stored keys with the given prefix, sorted. An empty prefix
// lists everything.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0, 16)
	for key := range s.d.Keys(ctx.Done()) {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
