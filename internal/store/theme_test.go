package store

import (
	"context"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/kv/memory"
)

func TestThemeInitialize(t *testing.T) {
	tests := []struct {
		name     string
		stored   map[string]string
		ambient  bool
		want     core.Theme
		wantAttr bool
	}{
		{name: "no preference light host", want: core.Light},
		{name: "no preference dark host", ambient: true, want: core.Dark, wantAttr: true},
		{name: "stored dark", stored: map[string]string{ThemeKey: "dark"}, want: core.Dark, wantAttr: true},
		{name: "stored light wins over dark host", stored: map[string]string{ThemeKey: "light"}, ambient: true, want: core.Light},
		{name: "unknown stored value falls back to host", stored: map[string]string{ThemeKey: "solarized"}, ambient: true, want: core.Dark, wantAttr: true},
		{name: "empty stored value", stored: map[string]string{ThemeKey: ""}, want: core.Light},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kvs := memory.NewFromMap(tt.stored)
			doc := NewElement()
			s := NewThemeStore(kvs, doc, StaticAmbient(tt.ambient))

			s.Initialize(ctx)

			if got := s.Theme(); got != tt.want {
				t.Errorf("theme = %q, want %q", got, tt.want)
			}
			v, ok := doc.Attribute(ThemeAttribute)
			if ok != tt.wantAttr || (ok && v != "dark") {
				t.Errorf("attribute = %q (set=%v), want set=%v", v, ok, tt.wantAttr)
			}
			if saved, _, _ := kvs.GetItem(ctx, ThemeKey); saved != string(tt.want) {
				t.Errorf("persisted %q, want %q", saved, tt.want)
			}
		})
	}
}

func TestThemeInitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	s := NewThemeStore(kvs, nil, StaticAmbient(false))
	s.Initialize(ctx)

	s.ToggleTheme(ctx)
	s.Initialize(ctx)
	if s.Theme() != core.Dark {
		t.Fatalf("second Initialize must not re-resolve, got %q", s.Theme())
	}
}

func TestThemeNilAmbient(t *testing.T) {
	s := NewThemeStore(memory.New(), nil, nil)
	s.Initialize(context.Background())
	if s.Theme() != core.Light {
		t.Fatalf("expected light, got %q", s.Theme())
	}
}

func TestToggleTheme(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	doc := NewElement()
	s := NewThemeStore(kvs, doc, StaticAmbient(false))
	s.Initialize(ctx)

	if got := s.ToggleTheme(ctx); got != core.Dark {
		t.Fatalf("first toggle = %q", got)
	}
	if v, _ := doc.Attribute(ThemeAttribute); v != "dark" {
		t.Fatalf("dark theme should set the attribute")
	}
	if saved, _, _ := kvs.GetItem(ctx, ThemeKey); saved != "dark" {
		t.Fatalf("persisted %q", saved)
	}

	if got := s.ToggleTheme(ctx); got != core.Light {
		t.Fatalf("second toggle = %q", got)
	}
	if _, ok := doc.Attribute(ThemeAttribute); ok {
		t.Fatalf("light theme should remove the attribute")
	}
	if saved, _, _ := kvs.GetItem(ctx, ThemeKey); saved != "light" {
		t.Fatalf("persisted %q", saved)
	}
}

func TestToggleBeforeInitializeIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	doc := NewElement()
	s := NewThemeStore(kvs, doc, StaticAmbient(false))

	if got := s.ToggleTheme(ctx); got != core.Dark {
		t.Fatalf("toggle = %q", got)
	}
	if _, ok, _ := kvs.GetItem(ctx, ThemeKey); ok {
		t.Fatalf("nothing should be persisted before Initialize")
	}
	if _, ok := doc.Attribute(ThemeAttribute); ok {
		t.Fatalf("nothing should be applied before Initialize")
	}
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	doc := NewElement()
	s := NewThemeStore(kvs, doc, StaticAmbient(false))
	s.Initialize(ctx)

	if err := s.SetTheme(ctx, core.Dark); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if saved, _, _ := kvs.GetItem(ctx, ThemeKey); saved != "dark" {
		t.Fatalf("persisted %q", saved)
	}
	if err := s.SetTheme(ctx, core.Theme("sepia")); err == nil {
		t.Fatalf("expected an error for an unknown theme")
	}
	if s.Theme() != core.Dark {
		t.Fatalf("rejected value must not change the theme")
	}
}

func TestApplyTheme(t *testing.T) {
	ctx := context.Background()
	doc := NewElement()
	s := NewThemeStore(memory.NewFromMap(map[string]string{ThemeKey: "dark"}), doc, StaticAmbient(false))
	s.Initialize(ctx)

	doc.RemoveAttribute(ThemeAttribute)
	s.ApplyTheme()
	if v, _ := doc.Attribute(ThemeAttribute); v != "dark" {
		t.Fatalf("ApplyTheme should restore the attribute")
	}
}

func TestThemeStorageFailures(t *testing.T) {
	ctx := context.Background()
	kvs := &failingKV{Store: memory.New(), failGet: true, failSet: true}
	s := NewThemeStore(kvs, nil, StaticAmbient(true))

	s.Initialize(ctx)
	if !s.Initialized() || s.Theme() != core.Dark {
		t.Fatalf("unreadable storage should fall back to the host preference, got %q", s.Theme())
	}
	if got := s.ToggleTheme(ctx); got != core.Light {
		t.Fatalf("toggle should work in memory, got %q", got)
	}
}

func TestAmbientFromConfig(t *testing.T) {
	tests := map[string]bool{"dark": true, " Dark ": true, "light": false, "": false}
	for scheme, want := range tests {
		if got := AmbientFromConfig(scheme)(); got != want {
			t.Errorf("AmbientFromConfig(%q)() = %v, want %v", scheme, got, want)
		}
	}
}
