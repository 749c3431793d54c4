package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/qadesk/internal/config"
	"github.com/hyperjump/qadesk/internal/keyword"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/storage"
)

// CollectStatus reports store, catalog and keyword index sizes plus the effective settings.
// Keyword and disk usage figures are best effort.
func CollectStatus(ctx context.Context, deps Deps, cfg *config.Config) (*models.Status, error) {
	docCount, err := deps.Catalog.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	st := &models.Status{
		Chunks:          deps.Store.Size(),
		VectorIndexSize: deps.Store.IndexSize(),
		VectorIndexType: deps.Store.IndexType(),
		Dimensions:      deps.Store.Dimensions(),
		Documents:       docCount,
	}
	if deps.Keyword != nil {
		if n, err := deps.Keyword.DocCount(); err == nil {
			st.KeywordDocs = n
		}
	}
	if disk, err := storage.DiskUsageBytes(
		cfg.Storage.SnapshotPath,
		cfg.Storage.DatabasePath,
		cfg.Storage.KeywordIndexPath,
	); err == nil {
		st.DiskUsageBytes = disk
	}
	st.Config = map[string]any{
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"llm_model":            cfg.LLM.Model,
		"chunk_size":           cfg.Ingest.ChunkSize,
		"default_k":            cfg.Retrieval.DefaultK,
		"snapshot_path":        cfg.Storage.SnapshotPath,
		"database_path":        cfg.Storage.DatabasePath,
		"keyword_index_path":   cfg.Storage.KeywordIndexPath,
		"watch_inbox":          cfg.Ingest.WatchInbox,
	}
	return st, nil
}

// KeywordSearch runs a keyword query and attaches chunk text from the store.
// Hits whose position is no longer in the store are dropped.
func KeywordSearch(ctx context.Context, deps Deps, q string, limit int, fuzzy bool) ([]models.SearchHit, error) {
	if deps.Keyword == nil {
		return nil, fmt.Errorf("keyword search not enabled")
	}
	var opts *keyword.SearchOptions
	if fuzzy {
		opts = &keyword.SearchOptions{FuzzyEnabled: true, Fuzziness: 1}
	}
	hits, err := deps.Keyword.Search(ctx, q, limit, opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.SearchHit, 0, len(hits))
	for _, h := range hits {
		text, ok := deps.Store.Chunk(h.Position)
		if !ok {
			continue
		}
		out = append(out, models.SearchHit{
			Position:  h.Position,
			Score:     h.Score,
			Document:  h.Title,
			Text:      text,
			Fragments: h.Fragments,
		})
	}
	return out, nil
}
