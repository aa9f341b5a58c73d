package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/platform"
	"github.com/crosspost/crosspost/internal/core/store"
)

// DefaultPreferences is what Load returns before anything was saved.
func DefaultPreferences() core.Preferences {
	return core.Preferences{
		DefaultPlatforms:  []string{"twitter", "facebook", "linkedin"},
		LowercaseHashtags: false,
		Theme:             core.ThemeSystem,
	}
}

// ParseTheme accepts light, dark or system (case-insensitive); empty means system.
func ParseTheme(value string) (core.Theme, error) {
	switch core.Theme(strings.ToLower(strings.TrimSpace(value))) {
	case "", core.ThemeSystem:
		return core.ThemeSystem, nil
	case core.ThemeLight:
		return core.ThemeLight, nil
	case core.ThemeDark:
		return core.ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q (expected light, dark or system)", value)
	}
}

// PreferenceStore keeps the user's settings.
type PreferenceStore struct {
	Records  RecordStore
	Registry *platform.Registry
	Logger   *logging.Logger

	mu      sync.Mutex
	current *core.Preferences
}

// NewPreferenceStore returns preferences validated against registry.
func NewPreferenceStore(records RecordStore, registry *platform.Registry, logger *logging.Logger) *PreferenceStore {
	return &PreferenceStore{Records: records, Registry: registry, Logger: logger}
}

// Load returns saved preferences or DefaultPreferences.
func (p *PreferenceStore) Load(ctx context.Context) core.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		prefs := DefaultPreferences()
		var stored core.Preferences
		if loadRecord(ctx, p.Records, p.Logger, store.RecordPreferences, &stored) {
			if theme, err := ParseTheme(string(stored.Theme)); err == nil {
				stored.Theme = theme
				prefs = stored
			} else {
				warnStorage(p.Logger, "load", store.RecordPreferences, err)
			}
		}
		p.current = &prefs
	}
	return clonePrefs(*p.current)
}

// Save validates and stores prefs. Storage failures are logged.
func (p *PreferenceStore) Save(ctx context.Context, prefs core.Preferences) (core.Preferences, error) {
	theme, err := ParseTheme(string(prefs.Theme))
	if err != nil {
		return core.Preferences{}, err
	}
	prefs.Theme = theme

	registry := p.Registry
	if registry == nil {
		registry = platform.Default()
	}
	prefs.DefaultPlatforms = dedupe(prefs.DefaultPlatforms)
	if err := registry.Validate(prefs.DefaultPlatforms); err != nil {
		return core.Preferences{}, fmt.Errorf("invalid default platforms: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	stored := clonePrefs(prefs)
	p.current = &stored
	saveRecord(ctx, p.Records, p.Logger, store.RecordPreferences, stored)
	return clonePrefs(prefs), nil
}

func clonePrefs(prefs core.Preferences) core.Preferences {
	prefs.DefaultPlatforms = append([]string(nil), prefs.DefaultPlatforms...)
	return prefs
}
