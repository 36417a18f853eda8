package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "Absolute path",
			input:    "/absolute/path",
			expected: "/absolute/path",
		},
		{
			name:     "Relative path",
			input:    "relative/path",
			expected: "relative/path",
		},
		{
			name:     "Home directory only",
			input:    "~",
			expected: home,
		},
		{
			name:     "Home directory with forward slash",
			input:    "~/Downloads",
			expected: filepath.Join(home, "Downloads"),
		},
		{
			name:     "Home directory with backslash (simulated)",
			input:    `~\Downloads`,
			expected: filepath.Join(home, "Downloads"),
		},
		{
			name:     "Invalid tilde use (middle)",
			input:    "/path/~/test",
			expected: "/path/~/test",
		},
		{
			name:     "Invalid tilde use (no separator)",
			input:    "~user",
			expected: "~user", // We don't support ~user expansion currently
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.expected {
				t.Errorf("expandPath(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config dir comes from APPDATA on windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)

	if Exists() {
		t.Fatal("config should not exist in a fresh home")
	}
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Init(); err == nil {
		t.Fatal("second Init() should refuse to overwrite")
	}

	cfg := LoadOrDefault()
	cfg.Proxy = "socks5://127.0.0.1:1080"
	cfg.Player = "~/bin/streamlink"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".config", AppDirName, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# cbcsl configuration file") {
		t.Errorf("saved file missing header: %q", data)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Proxy != cfg.Proxy {
		t.Errorf("Proxy = %q; want %q", loaded.Proxy, cfg.Proxy)
	}
	if want := filepath.Join(home, "bin", "streamlink"); loaded.Player != want {
		t.Errorf("Player = %q; want %q", loaded.Player, want)
	}
	if loaded.Quality != "best" {
		t.Errorf("Quality = %q; want default %q", loaded.Quality, "best")
	}
}

func TestSetGetUnset(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "backend", value: "legacy", want: "legacy"},
		{key: "backend", value: "v4", wantErr: true},
		{key: "player_loglevel", value: "debug", want: "debug"},
		{key: "player_loglevel", value: "loud", wantErr: true},
		{key: "pin_variant", value: "true", want: "true"},
		{key: "pin_variant", value: "maybe", wantErr: true},
		{key: "page_size", value: "50", want: "50"},
		{key: "page_size", value: "-1", wantErr: true},
		{key: "server.port", value: "9000", want: "9000"},
		{key: "server.port", value: "70000", wantErr: true},
		{key: "server.api_key", value: "s3cret", want: "s3cret"},
		{key: "timezone", value: "UTC", want: "UTC"},
		{key: "timezone", value: "Mars/Olympus", wantErr: true},
		{key: "colour", value: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			before := *cfg
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Set(%q, %q) should fail", tt.key, tt.value)
				}
				if *cfg != before {
					t.Errorf("failed Set modified the config")
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q, %q) error = %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil || got != tt.want {
				t.Errorf("Get(%q) = %q, %v; want %q", tt.key, got, err, tt.want)
			}
			if err := cfg.Unset(tt.key); err != nil {
				t.Errorf("Unset(%q) error = %v", tt.key, err)
			}
		})
	}
}

func TestGenerationDefault(t *testing.T) {
	cfg := &Config{}
	if g := cfg.Generation(); g != identifier.GraphQL {
		t.Errorf("Generation() = %q; want %q", g, identifier.GraphQL)
	}
	cfg.Backend = "catalog"
	if g := cfg.Generation(); g != identifier.Catalog {
		t.Errorf("Generation() = %q; want %q", g, identifier.Catalog)
	}
	if len(Keys()) != 14 {
		t.Errorf("Keys() = %v", Keys())
	}
}
