package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "cbcsl"
)

// ConfigDir returns the standard config directory for cbcsl.
// Windows: %APPDATA%\cbcsl\
// macOS/Linux: ~/.config/cbcsl/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/cbcsl/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Log levels streamlink accepts for --loglevel
var PlayerLogLevels = []string{"none", "error", "warning", "info", "debug", "trace", "all"}

type Config struct {
	// API generation: graphql, catalog or legacy
	Backend string `yaml:"backend,omitempty"`

	// Proxy used for API requests and passed to the player
	// (e.g., "socks5://127.0.0.1:1080", "http://proxy:3128")
	Proxy string `yaml:"proxy,omitempty"`

	// Stream quality passed to the player (e.g., "best", "720p")
	Quality string `yaml:"quality,omitempty"`

	// Player executable, looked up in PATH when not absolute
	Player string `yaml:"player,omitempty"`

	// Player --loglevel
	PlayerLogLevel string `yaml:"player_loglevel,omitempty"`

	// Resolve the master playlist to its best variant before playing
	PinVariant bool `yaml:"pin_variant,omitempty"`

	// Print full watch URLs instead of IDs in listings
	FullURLs bool `yaml:"full_urls,omitempty"`

	// Web origin, only changed for testing against a mirror
	Origin string `yaml:"origin,omitempty"`

	// IANA zone for listing times; empty means the system zone
	Timezone string `yaml:"timezone,omitempty"`

	// Listing categories, backend specific
	LiveCategory   string `yaml:"live_category,omitempty"`
	ReplayCategory string `yaml:"replay_category,omitempty"`
	PageSize       int    `yaml:"page_size,omitempty"`

	Server ServerConfig `yaml:"server,omitempty"`
}

// ServerConfig holds HTTP server settings for `cbcsl serve`
type ServerConfig struct {
	// Listen port (default: 8080)
	Port int `yaml:"port,omitempty"`

	// Required in X-API-Key (or ?key=) when set
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend:        string(identifier.GraphQL),
		Quality:        "best",
		Player:         "streamlink",
		PlayerLogLevel: "info",
	}
}

// Validate checks values that would otherwise fail late, mid-pipeline.
func (c *Config) Validate() error {
	if c.Backend != "" {
		if _, err := identifier.ParseGeneration(c.Backend); err != nil {
			return err
		}
	}
	if c.PlayerLogLevel != "" && !validLogLevel(c.PlayerLogLevel) {
		return fmt.Errorf("invalid player_loglevel %q (want one of: %s)", c.PlayerLogLevel, strings.Join(PlayerLogLevels, ", "))
	}
	if c.PageSize < 0 {
		return fmt.Errorf("invalid page_size %d", c.PageSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func validLogLevel(level string) bool {
	for _, l := range PlayerLogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Generation returns the configured backend, defaulting to graphql.
func (c *Config) Generation() identifier.Generation {
	g, err := identifier.ParseGeneration(c.Backend)
	if err != nil {
		return identifier.GraphQL
	}
	return g
}

// Location returns the zone listing times are rendered in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Keys lists the names accepted by Get, Set and Unset.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func boolField(p func(c *Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			if v == "" {
				*p(c) = false
				return nil
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean: %s", v)
			}
			*p(c) = b
			return nil
		},
	}
}

func intField(p func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			if v == "" {
				*p(c) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid number: %s", v)
			}
			*p(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"backend":         stringField(func(c *Config) *string { return &c.Backend }),
	"proxy":           stringField(func(c *Config) *string { return &c.Proxy }),
	"quality":         stringField(func(c *Config) *string { return &c.Quality }),
	"player":          stringField(func(c *Config) *string { return &c.Player }),
	"player_loglevel": stringField(func(c *Config) *string { return &c.PlayerLogLevel }),
	"origin":          stringField(func(c *Config) *string { return &c.Origin }),
	"timezone":        stringField(func(c *Config) *string { return &c.Timezone }),
	"live_category":   stringField(func(c *Config) *string { return &c.LiveCategory }),
	"replay_category": stringField(func(c *Config) *string { return &c.ReplayCategory }),
	"pin_variant":     boolField(func(c *Config) *bool { return &c.PinVariant }),
	"full_urls":       boolField(func(c *Config) *bool { return &c.FullURLs }),
	"server.api_key":  stringField(func(c *Config) *string { return &c.Server.APIKey }),
	"page_size":       intField(func(c *Config) *int { return &c.PageSize }),
	"server.port":     intField(func(c *Config) *int { return &c.Server.Port }),
}

// Get returns the value of key as a string.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(c), nil
}

// Set assigns key from its string form and validates the result.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}
	next := *c
	if err := f.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Unset clears key so its default applies again.
func (c *Config) Unset(key string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}
	return f.set(c, "")
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %s\nRun 'cbcsl config set --help' to see supported keys", key)
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/cbcsl/config.yml
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.Player = expandPath(cfg.Player)

	return cfg, nil
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes to ensure cross-platform compatibility
// for configuration files.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/cbcsl/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# cbcsl configuration file\n# Run 'cbcsl init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return "config.yml"
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	return cfg
}
