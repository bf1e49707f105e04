package services

import (
	"context"
	"fmt"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
)

// Preferences serves the stored theme, falling back to the configured
// default when the user never picked one.
type Preferences struct {
	store    storage.StateStore
	fallback core.Theme
}

func NewPreferences(store storage.StateStore, fallback core.Theme) *Preferences {
	if !fallback.IsValid() {
		fallback = core.ThemeLight
	}
	return &Preferences{store: store, fallback: fallback}
}

func (p *Preferences) Theme(ctx context.Context) (core.Theme, error) {
	t, err := p.store.Theme(ctx)
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if !t.IsValid() {
		return p.fallback, nil
	}
	return t, nil
}

func (p *Preferences) SetTheme(ctx context.Context, t core.Theme) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidTheme, t)
	}
	return p.store.SetTheme(ctx, t)
}
