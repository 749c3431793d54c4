package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default ".env") into the
// process environment. Variables already set are not overridden; missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with values from the environment:
// OLLAMA_HOST (LLM and embedding base URL), QADESK_LLM_MODEL and OPENAI_API_KEY.
func ApplyEnv(cfg *Config) {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		base := OllamaBaseURL(host)
		cfg.LLM.BaseURL = base
		cfg.Embedding.BaseURL = base
	}
	if model := os.Getenv("QADESK_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = key
		}
	}
}

// OllamaBaseURL turns an OLLAMA_HOST value ("host:port" or "http://host:port")
// into the OpenAI-compatible base URL ("http://host:port/v1").
func OllamaBaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if strings.HasSuffix(host, "/v1") {
		return host
	}
	return host + "/v1"
}
