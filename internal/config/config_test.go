package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "test.db") {
		t.Errorf("database_path should resolve against config dir: %q", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("port default = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("api_key_env default = %q", cfg.Embedding.APIKeyEnv)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions default = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Chunking.Strategy != "window" {
		t.Errorf("strategy default = %q, want window", cfg.Chunking.Strategy)
	}
	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("chunking defaults = %d/%d, want 500/50", cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("top_k default = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MaxContextLength != 4000 {
		t.Errorf("max_context_length default = %d, want 4000", cfg.Retrieval.MaxContextLength)
	}
	if !cfg.Retrieval.RerankOrDefault() {
		t.Error("rerank should default to true")
	}
	if time.Duration(cfg.Cache.TTL) != time.Hour {
		t.Errorf("cache ttl default = %v, want 1h", time.Duration(cfg.Cache.TTL))
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("watch extensions should get defaults")
	}
}

func TestLoadCacheTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
cache:
  ttl: 30m
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if time.Duration(cfg.Cache.TTL) != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", time.Duration(cfg.Cache.TTL))
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCUMIND_TEST_KEY=sekrit\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCUMIND_TEST_KEY", "")
	os.Unsetenv("DOCUMIND_TEST_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Embedding.APIKeyEnv = "DOCUMIND_TEST_KEY"
	if got := cfg.Embedding.APIKey(); got != "sekrit" {
		t.Errorf("APIKey = %q, want value from .env", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Watch.Directories = []string{"/docs/inbox"}

	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != "/docs/inbox" {
		t.Errorf("watch directories not preserved: %v", loaded.Watch.Directories)
	}
}
