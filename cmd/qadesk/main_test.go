package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/hyperjump/qadesk/internal/config"
	"github.com/hyperjump/qadesk/internal/server"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"safety training", "-k", "3"},
			expected: []string{"-k", "3", "safety training"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "3", "safety training"},
			expected: []string{"-k", "3", "safety training"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"safety training"},
			expected: []string{"safety training"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"vacation", "days", "--output", "json"},
			expected: []string{"--output", "json", "vacation", "days"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"leave"}, "leave"},
		{"multiple words", []string{"annual", "leave"}, "annual leave"},
		{"single quoted phrase", []string{"annual leave"}, "annual leave"},
		{"surrounding space", []string{"  leave  "}, "leave"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%q) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qadesk.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  data_dir: ./data\nllm:\n  model: mistral\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QADESK_LLM_MODEL", "llama3")

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Storage.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("LLM.Model = %q, want env override llama3", cfg.LLM.Model)
	}
}

func TestLoadConfig_prefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != filepath.Join(dir, "config.yaml") {
		t.Errorf("resolved = %q", resolved)
	}
	if cfg.Server.Port != 9123 {
		t.Errorf("Port = %d, want 9123", cfg.Server.Port)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.pdf", "skip.bin", filepath.Join("sub", "c.md")} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(dir, "skip.bin")

	got, err := collectFiles([]string{dir, explicit}, []string{".txt", ".pdf", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.pdf"),
		explicit,
		filepath.Join(dir, "sub", "c.md"),
	}
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectFiles() = %v, want %v", got, want)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}, nil); err == nil {
		t.Error("expected error for missing path")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.DataDir = t.TempDir()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Dimensions = 64
	cfg.Ingest.ChunkSize = 60
	config.ApplyDefaults(cfg)
	return cfg
}

func TestInitializeComponents(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	src := filepath.Join(t.TempDir(), "handbook.txt")
	text := "New hires receive a badge on day one. Safety training happens in the first week. Vacation requests go to your manager."
	if err := os.WriteFile(src, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := c.Indexer.IngestFile(ctx, src, 0)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	st, err := server.CollectStatus(ctx, c.Deps(), cfg)
	if err != nil {
		t.Fatalf("CollectStatus: %v", err)
	}
	if st.Documents != 1 || st.Chunks != doc.ChunkCount || st.Chunks < 2 {
		t.Errorf("status = %+v, doc = %+v", st, doc)
	}
	if st.KeywordDocs != uint64(st.Chunks) {
		t.Errorf("KeywordDocs = %d, want %d", st.KeywordDocs, st.Chunks)
	}

	if _, err := initializeComponents(ctx, cfg, zap.NewNop()); err == nil {
		t.Error("second open of a locked data directory should fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Store.Size() != doc.ChunkCount {
		t.Errorf("reopened Size = %d, want %d", reopened.Store.Size(), doc.ChunkCount)
	}
	chunks, err := reopened.Store.Retrieve(ctx, "safety training", 1)
	if err != nil || len(chunks) != 1 {
		t.Fatalf("Retrieve = %v, %v", chunks, err)
	}
}
