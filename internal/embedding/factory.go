package embedding

import (
	"fmt"

	"github.com/hyperjump/qadesk/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// New creates the embedder selected by cfg.Provider, wrapped in an LRU cache.
// When the ONNX model cannot be loaded, New falls back to the hash embedder and logs a warning.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var e Embedder
	switch cfg.Provider {
	case ProviderONNX, "":
		onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using hash embedder",
				zap.String("model_path", cfg.ModelPath), zap.Error(err))
			e = NewHashEmbedder(cfg.Dimensions)
		} else {
			e = onnx
		}
	case ProviderOpenAI:
		oa, err := NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		e = oa
	case ProviderHash:
		e = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, hash)", cfg.Provider)
	}
	return NewCachedEmbedder(e, cfg.CacheSize), nil
}
