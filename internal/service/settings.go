package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

// SettingsService is the flat preference map plus the separately stored
// theme mode. Every Set writes the whole map.
type SettingsService struct {
	kv     repository.KeyValueStore
	logger *slog.Logger

	mu sync.Mutex
}

func NewSettingsService(kv repository.KeyValueStore, logger *slog.Logger) *SettingsService {
	return &SettingsService{kv: kv, logger: logger}
}

// Get returns the stored value for key, or its default. An unknown key is
// apperror.ErrNotFound.
func (s *SettingsService) Get(ctx context.Context, key string) (any, error) {
	def, known := model.DefaultSettings()[key]
	if !known {
		return nil, apperror.NotFound("setting", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.readLocked(ctx)
	if v, ok := stored[key]; ok && sameKind(v, def) {
		return v, nil
	}
	return def, nil
}

// All returns the recognized keys: defaults overlaid with whatever is stored.
func (s *SettingsService) All(ctx context.Context) model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recognized(merged(s.readLocked(ctx)))
}

// Set validates value against the default's JSON kind and persists the full
// map. Unknown keys already in storage are kept as they are but never
// returned.
func (s *SettingsService) Set(ctx context.Context, key string, value any) (model.Settings, error) {
	def, known := model.DefaultSettings()[key]
	if !known {
		return nil, apperror.ValidationFailed(key, fmt.Sprintf("unknown setting %q", key))
	}
	if !sameKind(value, def) {
		return nil, apperror.ValidationFailed(key, fmt.Sprintf("setting %q must be a %s", key, kindName(def)))
	}

	value = asFloat(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := merged(s.readLocked(ctx))
	stored[key] = value
	if err := s.writeLocked(ctx, stored); err != nil {
		return nil, err
	}

	s.logger.Info("setting changed", slog.String("key", key), slog.Any("value", value))
	return recognized(stored), nil
}

// ResetToDefaults overwrites the whole map with the defaults.
func (s *SettingsService) ResetToDefaults(ctx context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := model.DefaultSettings()
	if err := s.writeLocked(ctx, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

// Theme returns the stored theme mode, light if unset or unrecognized.
func (s *SettingsService) Theme(ctx context.Context) model.ThemeMode {
	raw, ok, err := s.kv.Get(ctx, repository.KeyThemeMode)
	if err != nil || !ok {
		return model.ThemeLight
	}
	mode := model.ThemeMode(raw)
	if !mode.Valid() {
		return model.ThemeLight
	}
	return mode
}

func (s *SettingsService) SetTheme(ctx context.Context, mode model.ThemeMode) error {
	if !mode.Valid() {
		return apperror.ValidationFailed("theme", fmt.Sprintf("unknown theme %q", mode))
	}
	if err := s.kv.Set(ctx, repository.KeyThemeMode, string(mode)); err != nil {
		return apperror.Storage("could not save theme", err)
	}
	return nil
}

// ToggleTheme flips light and dark and returns the new mode.
func (s *SettingsService) ToggleTheme(ctx context.Context) (model.ThemeMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := model.ThemeDark
	if s.Theme(ctx) == model.ThemeDark {
		next = model.ThemeLight
	}
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// readLocked fails soft: an unreadable or corrupt map is an empty one.
func (s *SettingsService) readLocked(ctx context.Context) model.Settings {
	raw, ok, err := s.kv.Get(ctx, repository.KeySettings)
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", slog.String("error", err.Error()))
		return model.Settings{}
	}
	if !ok || raw == "" {
		return model.Settings{}
	}
	var stored model.Settings
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("stored settings are corrupt, using defaults", slog.String("error", err.Error()))
		return model.Settings{}
	}
	return stored
}

func (s *SettingsService) writeLocked(ctx context.Context, settings model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("service/settings: encoding settings: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeySettings, string(data)); err != nil {
		s.logger.Error("failed to save settings", slog.String("error", err.Error()))
		return apperror.Storage("could not save settings", err)
	}
	return nil
}

// merged overlays stored on the defaults. Stored values of the wrong kind
// lose to the default; unknown stored keys pass through.
func merged(stored model.Settings) model.Settings {
	out := model.DefaultSettings()
	for k, v := range stored {
		if def, known := out[k]; known && !sameKind(v, def) {
			continue
		}
		out[k] = v
	}
	return out
}

// recognized drops every key that has no default.
func recognized(all model.Settings) model.Settings {
	defaults := model.DefaultSettings()
	out := make(model.Settings, len(defaults))
	for k := range defaults {
		out[k] = all[k]
	}
	return out
}

// sameKind compares JSON kinds. Numbers may arrive as any Go numeric type
// from callers but always decode as float64.
func sameKind(v, def any) bool {
	switch def.(type) {
	case bool:
		_, ok := v.(bool)
		return ok
	case string:
		_, ok := v.(string)
		return ok
	case float64:
		switch v.(type) {
		case float64, float32, int, int64, int32, json.Number:
			return true
		}
	}
	return false
}

// asFloat stores every number as float64, the way it will decode later.
func asFloat(v any) any {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

func kindName(def any) string {
	switch def.(type) {
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return "string"
	}
}
