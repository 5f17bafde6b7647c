package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PentesterFlow/routescan/internal/errors"
)

// =============================================================================
// DefaultConfig Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if config.Framework != "express" {
		t.Errorf("Framework = %s, want express", config.Framework)
	}
	if config.ObjectInstance != "router" {
		t.Errorf("ObjectInstance = %s, want router", config.ObjectInstance)
	}
	if config.Output.Format != "json" || !config.Output.Pretty || config.Output.Stream {
		t.Errorf("Output = %+v", config.Output)
	}
	if config.Store.Enabled {
		t.Error("Store should be disabled by default")
	}
	if config.Store.Path != DefaultStorePath {
		t.Errorf("Store.Path = %s, want %s", config.Store.Path, DefaultStorePath)
	}
	if config.Materialize.CloneDepth != 1 {
		t.Errorf("Materialize.CloneDepth = %d, want 1", config.Materialize.CloneDepth)
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		field   string
	}{
		{
			name: "valid config",
			modify: func(c *Config) {
				c.Source = "./src"
			},
			wantErr: false,
		},
		{
			name:    "missing source",
			modify:  func(c *Config) {},
			wantErr: true,
			field:   "source",
		},
		{
			name: "unknown framework",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Framework = "rails"
			},
			wantErr: true,
			field:   "framework",
		},
		{
			name: "framework is case-insensitive",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Framework = "Koa"
			},
			wantErr: false,
		},
		{
			name: "missing object instance",
			modify: func(c *Config) {
				c.Source = "./src"
				c.ObjectInstance = " "
			},
			wantErr: true,
			field:   "object_instance",
		},
		{
			name: "unsupported format",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Output.Format = "xml"
			},
			wantErr: true,
			field:   "output.format",
		},
		{
			name: "store without path",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Store = StoreConfig{Enabled: true}
			},
			wantErr: true,
			field:   "store.path",
		},
		{
			name: "negative clone depth",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Materialize.CloneDepth = -1
			},
			wantErr: true,
			field:   "materialize.clone_depth",
		},
		{
			name: "negative rate limit",
			modify: func(c *Config) {
				c.Source = "./src"
				c.Materialize.RequestsPerSecond = -1
			},
			wantErr: true,
			field:   "materialize.requests_per_second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if errors.GetErrorType(err) != errors.Config {
				t.Errorf("error type = %v, want config", errors.GetErrorType(err))
			}
			if se, ok := err.(*errors.ScanError); !ok || se.Path != tt.field {
				t.Errorf("error = %#v, want field %s", err, tt.field)
			}
		})
	}
}

// =============================================================================
// Clone Tests
// =============================================================================

func TestConfig_Clone(t *testing.T) {
	original := DefaultConfig()
	original.Source = "https://github.com/acme/shop"
	original.Clients = []string{"axios", "ky"}
	original.Token = "secret"

	clone := original.Clone()

	if clone.Source != original.Source {
		t.Errorf("Source = %s, want %s", clone.Source, original.Source)
	}
	if clone.Token != "secret" {
		t.Error("Clone should keep the token")
	}
	if clone.Materialize != original.Materialize {
		t.Errorf("Materialize = %+v, want %+v", clone.Materialize, original.Materialize)
	}

	clone.Clients[0] = "fetch"
	if original.Clients[0] != "axios" {
		t.Error("modifying clone affected original")
	}
}

// =============================================================================
// File Tests
// =============================================================================

func TestConfig_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			config := DefaultConfig()
			config.Source = "./api"
			config.Framework = "fastify"
			config.ObjectInstance = "app"
			config.Clients = []string{"http"}
			config.Token = "secret"
			config.Output.Format = "yaml"

			if err := config.SaveToFile(path); err != nil {
				t.Fatalf("SaveToFile() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) == "" {
				t.Fatal("config file is empty")
			}
			if strings.Contains(string(data), "secret") {
				t.Error("token must not be written to disk")
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile() error = %v", err)
			}
			if loaded.Source != "./api" || loaded.Framework != "fastify" || loaded.ObjectInstance != "app" {
				t.Errorf("loaded = %+v", loaded)
			}
			if len(loaded.Clients) != 1 || loaded.Clients[0] != "http" {
				t.Errorf("Clients = %v", loaded.Clients)
			}
			if loaded.Output.Format != "yaml" {
				t.Errorf("Output.Format = %s", loaded.Output.Format)
			}
			if loaded.Token != "" {
				t.Error("token should not be loaded from file")
			}
		})
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routescan.yaml")
	content := "source: ./web\nobject_instance: api\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Source != "./web" || config.ObjectInstance != "api" {
		t.Errorf("config = %+v", config)
	}
	if config.Framework != "express" {
		t.Errorf("Framework = %s, want default express", config.Framework)
	}
	if config.Materialize.GitBinary != "git" {
		t.Errorf("Materialize.GitBinary = %s, want default git", config.Materialize.GitBinary)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("source: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")

	config := DefaultConfig()
	config.ApplyEnv()
	if config.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", config.Token)
	}

	config.Token = "explicit"
	config.ApplyEnv()
	if config.Token != "explicit" {
		t.Error("ApplyEnv should not override an explicit token")
	}
}
