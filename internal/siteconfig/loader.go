// Package siteconfig loads the per-site JSON documents C11 turns into
// immutable domain.SiteConfig values, resolving ${ENV_VAR} placeholders and
// rejecting documents that use the wrong rate-limit config key.
package siteconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync/atomic"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/rs/zerolog/log"
)

// placeholderPattern matches "${ENV_VAR}" tokens anywhere in a config
// document's raw text, resolved against the process environment before
// JSON parsing so any string field may reference one.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// forbiddenRateLimitKey is the legacy config key that must be
// rejected at load time rather than silently tolerated alongside
// "rate_limit".
const forbiddenRateLimitKey = "rate_limiting"

// resolvePlaceholders substitutes every "${NAME}" occurrence in raw with
// the value of the NAME environment variable. An unset variable resolves
// to an empty string, matching shell parameter-expansion semantics for
// unset (not unbound-strict) variables.
func resolvePlaceholders(raw []byte) []byte {
	return placeholderPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := placeholderPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Loader reads and validates a directory of site-config JSON documents.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads every "*.json" file directly under the loader's directory,
// resolves placeholders, validates each document, and returns the full set
// of site configs sorted by SiteID. A single malformed document fails the
// whole load — callers get an all-or-nothing configuration set, never a
// partially-loaded one.
func (l *Loader) Load() ([]domain.SiteConfig, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("siteconfig: read dir %q: %w", l.dir, err)
	}

	seen := make(map[string]string)
	var configs []domain.SiteConfig

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		cfg, err := l.loadOne(path)
		if err != nil {
			return nil, err
		}

		if prior, ok := seen[cfg.SiteID]; ok {
			return nil, fmt.Errorf("siteconfig: duplicate site id %q in %q and %q", cfg.SiteID, prior, path)
		}
		seen[cfg.SiteID] = path

		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].SiteID < configs[j].SiteID })

	return configs, nil
}

func (l *Loader) loadOne(path string) (domain.SiteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.SiteConfig{}, fmt.Errorf("siteconfig: read %q: %w", path, err)
	}

	resolved := resolvePlaceholders(raw)

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(resolved, &asMap); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("siteconfig: parse %q: %w", path, err)
	}
	if _, present := asMap[forbiddenRateLimitKey]; present {
		return domain.SiteConfig{}, fmt.Errorf(
			"siteconfig: %q declares %q; only %q is accepted", path, forbiddenRateLimitKey, "rate_limit")
	}

	var cfg domain.SiteConfig
	if err := json.Unmarshal(resolved, &cfg); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("siteconfig: decode %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return domain.SiteConfig{}, fmt.Errorf("siteconfig: validate %q: %w", path, err)
	}

	return cfg, nil
}

// Store holds the currently active set of site configs behind an
// atomic.Value, so a Reload in progress never tears down configs an
// in-flight crawl already captured a reference to.
type Store struct {
	loader  *Loader
	current atomic.Value // []domain.SiteConfig
}

// NewStore creates a Store that loads from dir on first Reload.
func NewStore(dir string) *Store {
	return &Store{loader: NewLoader(dir)}
}

// Reload re-reads the config directory and, on success, atomically
// publishes the new set. On failure the previously published set remains
// active and the error is returned.
func (s *Store) Reload() error {
	configs, err := s.loader.Load()
	if err != nil {
		return err
	}
	s.current.Store(configs)
	log.Info().Int("count", len(configs)).Msg("site configs reloaded")
	return nil
}

// Sites returns the currently active, enabled site configs (Disabled sites
// stay visible via All but are excluded here, matching the
// "visible-but-undispatched" requirement for the scheduler's default
// site set).
func (s *Store) Sites() []domain.SiteConfig {
	all := s.All()
	enabled := make([]domain.SiteConfig, 0, len(all))
	for _, c := range all {
		if !c.Disabled {
			enabled = append(enabled, c)
		}
	}
	return enabled
}

// All returns every loaded site config, including disabled ones.
func (s *Store) All() []domain.SiteConfig {
	v := s.current.Load()
	if v == nil {
		return nil
	}
	return v.([]domain.SiteConfig)
}

// Get returns the config for siteID, if loaded.
func (s *Store) Get(siteID string) (domain.SiteConfig, bool) {
	for _, c := range s.All() {
		if c.SiteID == siteID {
			return c, true
		}
	}
	return domain.SiteConfig{}, false
}
