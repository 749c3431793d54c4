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
  database_path: "test.db"
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
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_dataDirRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  data_dir: "./data"
  uploads_dir: "./files/uploads"
ingest:
  chunk_size: 300
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	dataDir := filepath.Join(dir, "data")
	if cfg.Storage.DataDir != dataDir {
		t.Errorf("data_dir = %s, want %s", cfg.Storage.DataDir, dataDir)
	}
	if want := filepath.Join(dataDir, "index", "store.snap"); cfg.Storage.SnapshotPath != want {
		t.Errorf("snapshot_path = %s, want %s", cfg.Storage.SnapshotPath, want)
	}
	if want := filepath.Join(dir, "files", "uploads"); cfg.Storage.UploadsDir != want {
		t.Errorf("uploads_dir = %s, want %s", cfg.Storage.UploadsDir, want)
	}
	if cfg.Ingest.ChunkSize != 300 {
		t.Errorf("chunk_size = %d, want 300", cfg.Ingest.ChunkSize)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 5*time.Minute {
		t.Errorf("default request timeout: got %s", cfg.Server.RequestTimeout)
	}
	if cfg.Ingest.ChunkSize != 500 {
		t.Errorf("default chunk size: got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Retrieval.DefaultK != 5 {
		t.Errorf("default k: got %d", cfg.Retrieval.DefaultK)
	}
	if cfg.LLM.Model != "mistral" || cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("llm defaults: got %+v", cfg.LLM)
	}
	if cfg.Agents.OutdatedBefore != 2022 || cfg.Agents.SnippetLength != 200 {
		t.Errorf("agent defaults: got %+v", cfg.Agents)
	}
	if len(cfg.Guardrail.BannedTerms) != len(DefaultBannedTerms) {
		t.Errorf("banned terms: got %d, want %d", len(cfg.Guardrail.BannedTerms), len(DefaultBannedTerms))
	}
	if cfg.Ingest.Extensions[0] != ".pdf" {
		t.Errorf("extensions: got %v", cfg.Ingest.Extensions)
	}
}

func TestApplyDefaults_emptyBannedTermsKept(t *testing.T) {
	cfg := &Config{Guardrail: GuardrailConfig{BannedTerms: []string{}}}
	ApplyDefaults(cfg)
	if len(cfg.Guardrail.BannedTerms) != 0 {
		t.Errorf("explicit empty list should disable the guardrail, got %v", cfg.Guardrail.BannedTerms)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "gpu-box:11434")
	t.Setenv("QADESK_LLM_MODEL", "llama3")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	if cfg.LLM.BaseURL != "http://gpu-box:11434/v1" {
		t.Errorf("llm base url: got %s", cfg.LLM.BaseURL)
	}
	if cfg.Embedding.BaseURL != cfg.LLM.BaseURL {
		t.Errorf("embedding base url: got %s", cfg.Embedding.BaseURL)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("llm model: got %s", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api keys not applied: %q %q", cfg.LLM.APIKey, cfg.Embedding.APIKey)
	}
}

func TestOllamaBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"https://llm.internal/v1", "https://llm.internal/v1"},
	}
	for _, tt := range tests {
		if got := OllamaBaseURL(tt.in); got != tt.want {
			t.Errorf("OllamaBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("QADESK_TEST_DOTENV=hello\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QADESK_TEST_DOTENV", "")
	os.Unsetenv("QADESK_TEST_DOTENV")
	LoadDotEnv(envPath, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("QADESK_TEST_DOTENV"); got != "hello" {
		t.Errorf("QADESK_TEST_DOTENV = %q, want hello", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.DatabasePath != "/tmp/db" {
		t.Errorf("loaded database path: got %s", loaded.Storage.DatabasePath)
	}
}
