package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/qadesk/internal/agent"
	"github.com/hyperjump/qadesk/internal/config"
	"github.com/hyperjump/qadesk/internal/embedding"
	"github.com/hyperjump/qadesk/internal/guardrail"
	"github.com/hyperjump/qadesk/internal/indexer"
	"github.com/hyperjump/qadesk/internal/keyword"
	"github.com/hyperjump/qadesk/internal/llm"
	"github.com/hyperjump/qadesk/internal/qa"
	"github.com/hyperjump/qadesk/internal/server"
	"github.com/hyperjump/qadesk/internal/storage"
	"github.com/hyperjump/qadesk/internal/store"
	"github.com/hyperjump/qadesk/internal/uploads"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Store    *store.Store
	Catalog  *storage.SQLiteCatalog
	Keyword  *keyword.BleveIndex
	Indexer  *indexer.Indexer
	Engine   *qa.Engine
	Uploads  *uploads.Dir
}

// Deps returns the server dependencies backed by c.
func (c *Components) Deps() server.Deps {
	return server.Deps{
		Store:   c.Store,
		Indexer: c.Indexer,
		Engine:  c.Engine,
		Catalog: c.Catalog,
		Keyword: c.Keyword,
		Uploads: c.Uploads,
	}
}

// Close releases everything that was opened, store lock last.
func (c *Components) Close() error {
	var errs []error
	if c.Keyword != nil {
		errs = append(errs, c.Keyword.Close())
	}
	if c.Catalog != nil {
		errs = append(errs, c.Catalog.Close())
	}
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.Embedder, err = embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Store, err = store.Open(cfg.Storage.SnapshotPath, c.Embedder,
		store.WithIndexType(cfg.Storage.VectorIndexType),
		store.WithDefaultK(cfg.Retrieval.DefaultK),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	c.Catalog, err = storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	c.Keyword, err = keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	rebuilt, err := indexer.SyncKeywordIndex(ctx, c.Store, c.Keyword, c.Catalog)
	if err != nil {
		logger.Warn("keyword index sync failed", zap.Error(err))
	} else if rebuilt {
		logger.Info("keyword index rebuilt from store", zap.Int("chunks", c.Store.Size()))
	}

	c.Indexer = indexer.NewIndexer(c.Store,
		indexer.WithCatalog(c.Catalog),
		indexer.WithKeywordIndex(c.Keyword),
		indexer.WithChunkSize(cfg.Ingest.ChunkSize),
		indexer.WithLogger(logger),
	)

	client, err := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model,
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	analyzer := agent.NewAnalyzer(c.Store, cfg.Storage.ReportsDir,
		agent.WithCatalog(c.Catalog),
		agent.WithOutdatedBefore(cfg.Agents.OutdatedBefore),
		agent.WithSnippetLength(cfg.Agents.SnippetLength),
		agent.WithAnalyzerLogger(logger),
	)
	onboarding := agent.NewOnboarding(c.Store, client, cfg.Storage.ReportsDir,
		agent.WithQueries(cfg.Agents.PolicyQuery, cfg.Agents.SafetyQuery),
		agent.WithOnboardingLogger(logger),
	)
	c.Engine = qa.NewEngine(c.Store, client,
		qa.WithGuardrail(guardrail.NewChecker(cfg.Guardrail.BannedTerms)),
		qa.WithAgents(analyzer, onboarding),
		qa.WithLogger(logger),
	)

	c.Uploads, err = uploads.NewDir(cfg.Storage.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads dir: %w", err)
	}
	return c, nil
}
