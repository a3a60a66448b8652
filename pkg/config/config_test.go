package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, yamlContent string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeTestConfig(t, `
port: "8085"
env: "test"
database:
  host: "db.example.com"
  port: 5432
  user: "testuser"
  database: "testdb"
`)

	os.Unsetenv("PGHOST")
	os.Unsetenv("BASE_URL")
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected Port=9090 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host from YAML, got %s", cfg.Database.Host)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
}

func TestLoad_BaseURLDerivedFromPort(t *testing.T) {
	writeTestConfig(t, `
port: "8085"
`)

	os.Unsetenv("BASE_URL")
	os.Unsetenv("PORT")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8085" {
		t.Errorf("expected derived BaseURL http://localhost:8085, got %s", cfg.BaseURL)
	}
}

func TestParseJWKSEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "empty string",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "single pair",
			input: "https://auth.example.com=https://auth.example.com/.well-known/jwks.json",
			want: map[string]string{
				"https://auth.example.com": "https://auth.example.com/.well-known/jwks.json",
			},
		},
		{
			name:  "multiple pairs with whitespace",
			input: "a=1, b=2",
			want:  map[string]string{"a": "1", "b": "2"},
		},
		{
			name:  "malformed pair ignored",
			input: "a=1,garbage",
			want:  map[string]string{"a": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseJWKSEndpoints(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d endpoints, got %d", len(tt.want), len(got))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("endpoint %q: expected %q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "esg",
		Password: "secret",
		Database: "esg_engine",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=esg password=secret dbname=esg_engine sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
