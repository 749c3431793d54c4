// Package config provides configuration loading and structs for the qadesk server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Agents    AgentsConfig    `yaml:"agents"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// StorageConfig holds paths for the vector snapshot, catalog, indices and files.
type StorageConfig struct {
	DataDir          string `yaml:"data_dir"`
	SnapshotPath     string `yaml:"snapshot_path"`
	DatabasePath     string `yaml:"database_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	UploadsDir       string `yaml:"uploads_dir"`
	ReportsDir       string `yaml:"reports_dir"`
	InboxDir         string `yaml:"inbox_dir"`
	VectorIndexType  string `yaml:"vector_index_type"`
}

// EmbeddingConfig selects and configures the embedding model.
// Provider is one of "onnx", "openai" or "hash".
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig configures the OpenAI-compatible generation endpoint (Ollama by default).
type LLMConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// IngestConfig holds chunking and inbox settings.
type IngestConfig struct {
	ChunkSize  int      `yaml:"chunk_size"`
	Extensions []string `yaml:"extensions"`
	WatchInbox bool     `yaml:"watch_inbox"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// AgentsConfig holds settings for the analyzer and onboarding agents.
type AgentsConfig struct {
	OutdatedBefore int    `yaml:"outdated_before"`
	SnippetLength  int    `yaml:"snippet_length"`
	PolicyQuery    string `yaml:"policy_query"`
	SafetyQuery    string `yaml:"safety_query"`
}

// GuardrailConfig lists terms rejected in user questions.
type GuardrailConfig struct {
	BannedTerms []string `yaml:"banned_terms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	ApplyDefaults(&cfg)
	ExpandPaths(&cfg, configDir)
	return &cfg, nil
}

// ExpandPaths resolves every storage and model path of cfg against configDir.
func ExpandPaths(cfg *Config, configDir string) {
	for _, p := range []*string{
		&cfg.Storage.DataDir,
		&cfg.Storage.SnapshotPath,
		&cfg.Storage.DatabasePath,
		&cfg.Storage.KeywordIndexPath,
		&cfg.Storage.UploadsDir,
		&cfg.Storage.ReportsDir,
		&cfg.Storage.InboxDir,
		&cfg.Embedding.ModelPath,
	} {
		*p = expandPath(*p, configDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
