package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/kv"
	"expensetracker/internal/log"
)

const (
	// ThemeKey is the storage key of the theme preference.
	ThemeKey = "expense-tracker-theme"

	// ThemeAttribute is set to "dark" on the document while the dark theme is active.
	ThemeAttribute = "data-theme"
)

// AmbientPreference reports whether the host prefers a dark color scheme.
type AmbientPreference func() bool

// StaticAmbient returns an AmbientPreference with a fixed answer.
func StaticAmbient(dark bool) AmbientPreference {
	return func() bool { return dark }
}

// AmbientFromConfig maps a configured color scheme ("dark", "light" or empty)
// to an AmbientPreference.
func AmbientFromConfig(scheme string) AmbientPreference {
	return StaticAmbient(strings.EqualFold(strings.TrimSpace(scheme), string(core.Dark)))
}

// ThemeStore owns the light/dark preference.
type ThemeStore struct {
	mu          sync.Mutex
	kv          kv.Storage
	doc         Document
	ambient     AmbientPreference
	logger      *log.Logger
	theme       core.Theme
	initialized bool
}

// ThemeOption configures a ThemeStore.
type ThemeOption func(*ThemeStore)

func WithThemeLogger(l *log.Logger) ThemeOption {
	return func(s *ThemeStore) { s.logger = l.WithComponent(log.ComponentTheme) }
}

func NewThemeStore(storage kv.Storage, doc Document, ambient AmbientPreference, opts ...ThemeOption) *ThemeStore {
	s := &ThemeStore{
		kv:      storage,
		doc:     doc,
		ambient: ambient,
		theme:   core.Light,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	if s.doc == nil {
		s.doc = NewElement()
	}
	return s
}

// Initialize resolves the preference once: stored value, else the ambient
// signal, else light. It persists and applies the result. Later calls do nothing.
func (s *ThemeStore) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}

	s.theme = s.resolveLocked(ctx)
	s.initialized = true
	s.commitLocked(ctx)
	s.logger.InfoContext(ctx, "Theme initialized", log.FieldTheme, s.theme)
}

func (s *ThemeStore) resolveLocked(ctx context.Context) core.Theme {
	saved, ok, err := s.kv.GetItem(ctx, ThemeKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read theme from storage",
			log.FieldKey, ThemeKey, log.FieldError, err)
	}
	if ok && saved != "" {
		if t, valid := core.ParseTheme(saved); valid {
			return t
		}
		s.logger.WarnContext(ctx, "Ignoring unknown stored theme", log.FieldTheme, saved)
	}
	if s.ambient != nil && s.ambient() {
		return core.Dark
	}
	return core.Light
}

// ApplyTheme projects the current preference onto the document.
func (s *ThemeStore) ApplyTheme() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked()
}

func (s *ThemeStore) applyLocked() {
	if s.theme == core.Dark {
		s.doc.SetAttribute(ThemeAttribute, string(core.Dark))
	} else {
		s.doc.RemoveAttribute(ThemeAttribute)
	}
}

// commitLocked applies and persists the current preference. Storage failures
// are logged only.
func (s *ThemeStore) commitLocked(ctx context.Context) {
	s.applyLocked()
	if err := s.kv.SetItem(ctx, ThemeKey, string(s.theme)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist theme",
			log.FieldKey, ThemeKey, log.FieldTheme, s.theme, log.FieldError, err)
	}
}

// ToggleTheme flips light and dark and returns the new value. Once the store
// is initialized every change is applied and persisted immediately.
func (s *ThemeStore) ToggleTheme(ctx context.Context) core.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = s.theme.Toggle()
	if s.initialized {
		s.commitLocked(ctx)
	}
	s.logger.DebugContext(ctx, "Theme toggled", log.FieldTheme, s.theme, log.FieldOperation, log.OpToggle)
	return s.theme
}

// SetTheme sets an explicit preference with the same side effects as ToggleTheme.
func (s *ThemeStore) SetTheme(ctx context.Context, t core.Theme) error {
	parsed, ok := core.ParseTheme(string(t))
	if !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = parsed
	if s.initialized {
		s.commitLocked(ctx)
	}
	return nil
}

// Theme returns the current preference.
func (s *ThemeStore) Theme() core.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Initialized reports whether Initialize has run.
func (s *ThemeStore) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}
