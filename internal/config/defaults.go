package config

import (
	"path/filepath"
	"time"
)

// DefaultBannedTerms is the guardrail block list used when none is configured.
var DefaultBannedTerms = []string{
	"classified", "confidential", "insider", "slur", "hate", "bully", "damn", "hell",
	"ass", "bitch", "shit", "fuck", "racist", "sexist", "homophobic", "bigot", "weed",
	"coke", "meth", "stoned", "kill", "murder", "assault", "weapon", "cheat",
	"plagiarize", "copycat", "douche", "loser", "suck", "crap", "porn", "nude", "sex", "kink",
}

// ApplyDefaults sets default values for any zero values in cfg.
// Storage paths default to files under Storage.DataDir.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 64 << 20
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "/usr/local/var/qadesk/data"
	}
	dataDir := cfg.Storage.DataDir
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = filepath.Join(dataDir, "index", "store.snap")
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = filepath.Join(dataDir, "db", "catalog.db")
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = filepath.Join(dataDir, "index", "bleve")
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = filepath.Join(dataDir, "uploaded_docs")
	}
	if cfg.Storage.ReportsDir == "" {
		cfg.Storage.ReportsDir = filepath.Join(dataDir, "reports")
	}
	if cfg.Storage.InboxDir == "" {
		cfg.Storage.InboxDir = filepath.Join(dataDir, "inbox")
	}
	if cfg.Storage.VectorIndexType == "" {
		cfg.Storage.VectorIndexType = "flat"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = filepath.Join(dataDir, "models", "all-MiniLM-L6-v2.onnx")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistral"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 256
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 2 * time.Minute
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 500
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".xlsx", ".odt", ".rtf"}
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 5
	}
	if cfg.Retrieval.MaxK == 0 {
		cfg.Retrieval.MaxK = 50
	}
	if cfg.Agents.OutdatedBefore == 0 {
		cfg.Agents.OutdatedBefore = 2022
	}
	if cfg.Agents.SnippetLength == 0 {
		cfg.Agents.SnippetLength = 200
	}
	if cfg.Agents.PolicyQuery == "" {
		cfg.Agents.PolicyQuery = "onboarding policy"
	}
	if cfg.Agents.SafetyQuery == "" {
		cfg.Agents.SafetyQuery = "safety"
	}
	if cfg.Guardrail.BannedTerms == nil {
		cfg.Guardrail.BannedTerms = append([]string(nil), DefaultBannedTerms...)
	}
}
