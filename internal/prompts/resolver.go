package prompts

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// SettingKeyPrefix prefixes prompt overrides in the settings store.
const SettingKeyPrefix = "prompt."

// SettingsStore is a read-only key/value source for prompts and defaults.
type SettingsStore interface {
	// GetSetting returns ok=false when the key is not set.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
}

// Resolver looks prompts up in the settings store first and falls back to
// the embedded content prompts.
type Resolver struct {
	settings SettingsStore
}

// NewResolver creates a resolver. settings may be nil.
func NewResolver(settings SettingsStore) *Resolver {
	return &Resolver{settings: settings}
}

// Template returns the raw template for name.
func (r *Resolver) Template(ctx context.Context, name string) (string, error) {
	if r != nil && r.settings != nil {
		value, ok, err := r.settings.GetSetting(ctx, SettingKeyPrefix+name)
		if err != nil {
			// Settings outages should not block generation
			log.Printf("[prompts] settings lookup for %q failed, using embedded prompt: %v", name, err)
		} else if ok && strings.TrimSpace(value) != "" {
			return value, nil
		}
	}
	return Get(ContentFile, name)
}

// Render fetches the template for name and fills it with data.
func (r *Resolver) Render(ctx context.Context, name string, data map[string]string) (string, error) {
	tmpl, err := r.Template(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return Format(tmpl, data), nil
}
