// Package main is the qadesk CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/qadesk/internal/cli"
	"github.com/hyperjump/qadesk/internal/config"
	"github.com/hyperjump/qadesk/internal/indexer"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/server"
	"github.com/hyperjump/qadesk/internal/watcher"
	"github.com/hyperjump/qadesk/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/qadesk/config.yaml"
	defaultServerURL  = "http://localhost:8000"
	clientTimeout     = 10 * time.Minute
)

// loadConfig loads config from path. When path is the default, ./config.yaml is
// preferred if it exists; when neither exists the built-in defaults are used.
// Environment overrides (.env, OLLAMA_HOST, ...) are applied last.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	config.LoadDotEnv()
	cfg, resolved, err := readConfig(path)
	if err != nil {
		return nil, "", err
	}
	config.ApplyEnv(cfg)
	return cfg, resolved, nil
}

func readConfig(path string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, err := os.Stat(fallback); err == nil {
			cfg, err := config.Load(fallback)
			if err != nil {
				return nil, "", err
			}
			return cfg, fallback, nil
		}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "ingest":
		err = runIngest(args)
	case "retrieve":
		err = runRetrieve(args)
	case "search":
		err = runSearch(args)
	case "ask":
		err = runAsk(args)
	case "analyze":
		err = runAgent(models.AgentAnalyzer, args)
	case "onboard":
		err = runAgent(models.AgentOnboarding, args)
	case "documents":
		err = runDocuments(args)
	case "status":
		err = runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("qadesk version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, ingestion, etc.)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg, *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("llm_model", cfg.LLM.Model),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	var inbox *watcher.Inbox
	if cfg.Ingest.WatchInbox {
		inbox = watcher.NewInbox(cfg.Storage.InboxDir, cfg.Ingest.Extensions, components.Indexer,
			watcher.WithChunkSize(cfg.Ingest.ChunkSize),
			watcher.WithLogger(logger),
		)
		if err := inbox.Start(ctx); err != nil {
			return fmt.Errorf("failed to start inbox watcher: %w", err)
		}
		defer inbox.Stop()
		logger.Info("watching inbox", zap.String("dir", inbox.Dir()))
	}

	srv := server.NewServer(components.Deps(), cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// commandFlags are the flags shared by the client-side commands.
type commandFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	output     *string
}

func newCommandFlags(name string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &commandFlags{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path (for direct mode)"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = open the data directory directly; the server must not be running)"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
}

func (f *commandFlags) parse(args []string) (cli.OutputFormat, error) {
	_ = f.fs.Parse(argsReorder(args))
	return cli.ParseFormat(*f.output)
}

func (f *commandFlags) client() *cli.Client {
	return cli.NewClient(*f.serverURL, clientTimeout)
}

// direct opens the data directory and runs fn with the initialized components.
func (f *commandFlags) direct(fn func(ctx context.Context, c *Components, cfg *config.Config) error) error {
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(ctx, components, cfg)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. The flag package stops at
// the first non-flag argument, so "qadesk ask what is leave -k 3" would otherwise
// leave -k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runIngest(args []string) error {
	f := newCommandFlags("ingest")
	chunkSize := f.fs.Int("chunk-size", 0, "characters per chunk (0 = config value)")
	title := f.fs.String("title", "", "document title (single file, direct mode only)")
	format, err := f.parse(args)
	if err != nil {
		return err
	}
	if f.fs.NArg() < 1 {
		fmt.Println("Usage: qadesk ingest [flags] <file-or-directory>...")
		os.Exit(1)
	}

	if *f.serverURL != "" {
		cfg, _, err := loadConfig(*f.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		paths, err := collectFiles(f.fs.Args(), cfg.Ingest.Extensions)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Println("No supported files found.")
			return nil
		}
		res, err := f.client().Upload(context.Background(), paths...)
		if err != nil {
			return err
		}
		if format == cli.OutputText {
			fmt.Println(res.Message)
		}
		return cli.WriteDocuments(os.Stdout, res.Documents, format)
	}

	return f.direct(func(ctx context.Context, c *Components, cfg *config.Config) error {
		var docs []*models.Document
		for _, p := range f.fs.Args() {
			info, err := os.Stat(p)
			if err != nil {
				return err
			}
			if info.IsDir() {
				n, err := c.Indexer.IngestDirectory(ctx, p, cfg.Ingest.Extensions, *chunkSize)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "%s: %d new document(s)\n", p, n)
				continue
			}
			if *title != "" {
				doc, err := c.Indexer.Ingest(ctx, indexer.Source{Path: p, Title: *title}, *chunkSize)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				continue
			}
			doc, skipped, err := c.Indexer.IngestNew(ctx, p, *chunkSize)
			if err != nil {
				return err
			}
			if skipped {
				fmt.Fprintf(os.Stderr, "%s: already ingested as %s\n", p, doc.ID)
				continue
			}
			docs = append(docs, doc)
		}
		return cli.WriteDocuments(os.Stdout, docs, format)
	})
}

// collectFiles expands directories in paths into the files below them whose
// extension is allowed. Files named explicitly are kept as given.
func collectFiles(paths []string, allowed []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && indexer.ExtensionAllowed(filepath.Ext(path), allowed) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runRetrieve(args []string) error {
	f := newCommandFlags("retrieve")
	k := f.fs.Int("k", 0, "number of chunks (0 = config default)")
	format, err := f.parse(args)
	if err != nil {
		return err
	}
	q := buildQuery(f.fs.Args())
	if q == "" {
		fmt.Println("Usage: qadesk retrieve [flags] <query>")
		os.Exit(1)
	}

	if *f.serverURL != "" {
		res, err := f.client().Retrieve(context.Background(), q, *k)
		if err != nil {
			return err
		}
		return cli.WriteChunks(os.Stdout, q, res.Chunks, format)
	}
	return f.direct(func(ctx context.Context, c *Components, cfg *config.Config) error {
		n := *k
		if cfg.Retrieval.MaxK > 0 && n > cfg.Retrieval.MaxK {
			n = cfg.Retrieval.MaxK
		}
		chunks, err := c.Store.Retrieve(ctx, q, n)
		if err != nil {
			return err
		}
		return cli.WriteChunks(os.Stdout, q, chunks, format)
	})
}

func runSearch(args []string) error {
	f := newCommandFlags("search")
	limit := f.fs.Int("limit", 10, "number of results")
	fuzzy := f.fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	format, err := f.parse(args)
	if err != nil {
		return err
	}
	q := buildQuery(f.fs.Args())
	if q == "" {
		fmt.Println("Usage: qadesk search [flags] <query>")
		os.Exit(1)
	}

	if *f.serverURL != "" {
		hits, err := f.client().Search(context.Background(), q, *limit, *fuzzy)
		if err != nil {
			return err
		}
		return cli.WriteSearchHits(os.Stdout, q, hits, format)
	}
	return f.direct(func(ctx context.Context, c *Components, _ *config.Config) error {
		hits, err := server.KeywordSearch(ctx, c.Deps(), q, *limit, *fuzzy)
		if err != nil {
			return err
		}
		return cli.WriteSearchHits(os.Stdout, q, hits, format)
	})
}

func runAsk(args []string) error {
	f := newCommandFlags("ask")
	format, err := f.parse(args)
	if err != nil {
		return err
	}
	q := buildQuery(f.fs.Args())
	if q == "" {
		fmt.Println("Usage: qadesk ask [flags] <question>")
		os.Exit(1)
	}
	res, err := query(f, &models.QueryRequest{Question: q})
	if err != nil {
		return err
	}
	return cli.WriteAnswer(os.Stdout, res.Answer, format)
}

func runAgent(agentType string, args []string) error {
	f := newCommandFlags(agentType)
	format, err := f.parse(args)
	if err != nil {
		return err
	}
	res, err := query(f, &models.QueryRequest{UseAgent: true, AgentType: agentType})
	if err != nil {
		return err
	}
	if res.Analysis != nil {
		return cli.WriteAnalysis(os.Stdout, res.Analysis, format)
	}
	return cli.WriteOnboarding(os.Stdout, res.Onboarding, format)
}

// query sends req to the server, or runs it in-process in direct mode.
func query(f *commandFlags, req *models.QueryRequest) (*models.QueryResponse, error) {
	if *f.serverURL != "" {
		return f.client().Query(context.Background(), req)
	}
	var res *models.QueryResponse
	err := f.direct(func(ctx context.Context, c *Components, _ *config.Config) error {
		var err error
		res, err = c.Engine.Query(ctx, req)
		return err
	})
	return res, err
}

func runDocuments(args []string) error {
	f := newCommandFlags("documents")
	offset := f.fs.Int("offset", 0, "number of documents to skip")
	limit := f.fs.Int("limit", 100, "maximum number of documents")
	format, err := f.parse(args)
	if err != nil {
		return err
	}

	if *f.serverURL != "" {
		docs, err := f.client().Documents(context.Background(), *offset, *limit)
		if err != nil {
			return err
		}
		return cli.WriteDocuments(os.Stdout, docs, format)
	}
	return f.direct(func(ctx context.Context, c *Components, _ *config.Config) error {
		docs, err := c.Catalog.ListDocuments(ctx, *offset, *limit)
		if err != nil {
			return err
		}
		return cli.WriteDocuments(os.Stdout, docs, format)
	})
}

func runStatus(args []string) error {
	f := newCommandFlags("status")
	format, err := f.parse(args)
	if err != nil {
		return err
	}

	if *f.serverURL != "" {
		st, err := f.client().Status(context.Background())
		if err != nil {
			return err
		}
		return cli.WriteStatus(os.Stdout, st, format)
	}
	return f.direct(func(ctx context.Context, c *Components, cfg *config.Config) error {
		st, err := server.CollectStatus(ctx, c.Deps(), cfg)
		if err != nil {
			return err
		}
		return cli.WriteStatus(os.Stdout, st, format)
	})
}

func printUsage() {
	fmt.Println(`qadesk - Document question answering over your own files

Usage:
  qadesk server [flags]                    Start the HTTP server
  qadesk ingest [flags] <path>...          Ingest files or directories
  qadesk retrieve [flags] <query>          Show the chunks most similar to a query
  qadesk search [flags] <query>            Keyword search over chunks
  qadesk ask [flags] <question>            Answer a question from the documents
  qadesk analyze [flags]                   Report outdated and redundant chunks
  qadesk onboard [flags]                   Generate an onboarding checklist and quiz
  qadesk documents [flags]                 List ingested documents
  qadesk status [flags]                    Show store/catalog/index status
  qadesk version                           Show version
  qadesk help                              Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/qadesk/config.yaml)
  --debug            Enable debug logging

Common Flags (all other commands):
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8000). Use empty (--server "")
                     to open the data directory directly when the server is not running.
  --output string    Output format: text or json (default: text)

Command Flags:
  ingest     --chunk-size int  --title string (direct mode, single file)
  retrieve   -k int
  search     --limit int  --fuzzy
  documents  --offset int  --limit int

Environment:
  OLLAMA_HOST         LLM and embedding endpoint (host:port)
  QADESK_LLM_MODEL    LLM model name
  OPENAI_API_KEY      API key for OpenAI-compatible endpoints
  Variables may also be set in ./.env

Examples:
  qadesk server
  qadesk ingest handbook.pdf policies/
  qadesk ask how many vacation days do new hires get
  qadesk retrieve -k 3 "safety training"
  qadesk search --fuzzy enrolment
  qadesk analyze --output json
  qadesk onboard
  qadesk status --server ""`)
}
