package settings

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"xref-tui/internal/api"
	"xref-tui/internal/verse"
)

// EnvPrefix marks environment overrides: XREF_SERVER -> server, etc.
const EnvPrefix = "XREF_"

type Settings struct {
	Server           string        `koanf:"server" yaml:"server"`
	DefaultVerse     string        `koanf:"default_verse" yaml:"default_verse"`
	Theme            string        `koanf:"theme" yaml:"theme"`
	FilterMode       string        `koanf:"filter_mode" yaml:"filter_mode"`
	IncludeSuggested bool          `koanf:"include_suggested" yaml:"include_suggested"`
	LogFile          string        `koanf:"log_file" yaml:"log_file,omitempty"`
	Debug            bool          `koanf:"debug" yaml:"debug,omitempty"`
	CacheTree        bool          `koanf:"cache_tree" yaml:"cache_tree"`
	RequestTimeout   time.Duration `koanf:"request_timeout" yaml:"request_timeout,omitempty"`
}

func Default() Settings {
	return Settings{
		Server:       api.DefaultBaseURL,
		DefaultVerse: string(verse.Default),
		Theme:        "catppuccin-mocha",
		FilterMode:   string(api.FilterAll),
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xref-tui", "config.yaml"), nil
}

// Load starts from defaults, overlays the YAML file at path if it exists, then
// XREF_* environment variables.
func Load(path string) (Settings, error) {
	k := koanf.New(".")
	s := Default()

	if err := loadFile(k, path); err != nil {
		return s, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	}), nil); err != nil {
		return s, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &s); err != nil {
		return Default(), fmt.Errorf("unmarshalling config: %w", err)
	}
	return s, nil
}

// loadFile loads the YAML file at path into k. A missing file is not an error.
func loadFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("accessing config %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// Preferences are the display options the client remembers between runs.
type Preferences struct {
	Theme            string
	FilterMode       string
	IncludeSuggested bool
}

// SavePreferences rewrites only the preference keys of the file at path.
// Every other key stays as the file had it, so values that came from flags or
// the environment are never written.
func SavePreferences(path string, p Preferences) error {
	k := koanf.New(".")
	if err := loadFile(k, path); err != nil {
		return err
	}
	for key, val := range map[string]any{
		"theme":             p.Theme,
		"filter_mode":       p.FilterMode,
		"include_suggested": p.IncludeSuggested,
	} {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return writeYAML(path, k.Raw())
}

// Save writes s as YAML, creating the directory if needed.
func Save(path string, s Settings) error {
	return writeYAML(path, s)
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

func (s Settings) Validate() error {
	u, err := url.Parse(s.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server %q: must be an absolute URL", s.Server)
	}
	if strings.TrimSpace(s.DefaultVerse) == "" {
		return fmt.Errorf("default_verse is required")
	}
	if _, err := api.ParseFilterMode(s.FilterMode); err != nil {
		return fmt.Errorf("invalid filter_mode %q: must be one of all, incoming, outgoing", s.FilterMode)
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative")
	}
	return nil
}
