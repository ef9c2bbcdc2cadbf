// Package settings persists the user's theme and language preferences.
package settings

import (
	"context"
	"fmt"
	"log"

	model "github.com/refloapp/reflo/backend/internal/model/settings"
	"github.com/refloapp/reflo/backend/internal/store"
)

// Service reads and writes preferences through the shared store. Reads fall
// back to defaults when nothing is stored or a stored value does not
// validate, so a corrupt preference never breaks a screen.
type Service struct {
	kv store.KV
}

// NewService creates the settings service on top of the shared store.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv}
}

// Current returns the active settings. Callers re-read per request rather
// than caching, so a change lands on the next screen focus.
func (s *Service) Current(ctx context.Context) model.Settings {
	current := model.Defaults()

	if raw, err := s.kv.Get(ctx, store.KeyTheme); err == nil {
		if theme, err := model.ParseTheme(raw); err == nil {
			current.Theme = theme
		} else {
			log.Printf("[settings] ignoring stored theme: %v", err)
		}
	}

	if raw, err := s.kv.Get(ctx, store.KeyLanguage); err == nil {
		if language, err := model.ParseLanguage(raw); err == nil {
			current.Language = language
		} else {
			log.Printf("[settings] ignoring stored language: %v", err)
		}
	}

	return current
}

// UpdateTheme validates and persists a theme choice.
func (s *Service) UpdateTheme(ctx context.Context, raw string) (model.Theme, error) {
	theme, err := model.ParseTheme(raw)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, store.KeyTheme, string(theme)); err != nil {
		return "", fmt.Errorf("write theme: %w", err)
	}
	return theme, nil
}

// UpdateLanguage validates and persists a language choice.
func (s *Service) UpdateLanguage(ctx context.Context, raw string) (model.Language, error) {
	language, err := model.ParseLanguage(raw)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, store.KeyLanguage, string(language)); err != nil {
		return "", fmt.Errorf("write language: %w", err)
	}
	return language, nil
}
