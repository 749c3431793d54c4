package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const batchSize = 500

// chunkDoc is the document stored in Bleve for each chunk.
type chunkDoc struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// BleveIndex implements ChunkIndex using Bleve.
// Changing the mapping requires removing the index directory; the next start re-indexes from the store.
type BleveIndex struct {
	path  string
	index bleve.Index
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize, no stemming.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("position", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex opens the Bleve index at path, creating it when missing.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{path: path, index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{path: path, index: index}, nil
}

// IndexChunks indexes texts in batches; chunk ids are their decimal positions.
func (b *BleveIndex) IndexChunks(ctx context.Context, first int, texts []string, title string) error {
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := b.index.NewBatch()
		for i := start; i < end; i++ {
			pos := first + i
			doc := chunkDoc{Content: texts[i], Title: normalizeTitle(title), Position: pos}
			if err := batch.Index(strconv.Itoa(pos), doc); err != nil {
				return fmt.Errorf("batch chunk %d: %w", pos, err)
			}
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("index chunks: %w", err)
		}
	}
	return nil
}

// Rebuild drops the index and re-indexes chunks; titles[i] is the title of chunk i ("" when unknown).
func (b *BleveIndex) Rebuild(ctx context.Context, chunks []string, titles []string) error {
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("close Bleve index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("remove Bleve index: %w", err)
	}
	index, err := bleve.New(b.path, newMapping())
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b.index = index
	// Index runs of chunks sharing a title together.
	for start := 0; start < len(chunks); {
		end := start + 1
		for end < len(chunks) && titleAt(titles, end) == titleAt(titles, start) {
			end++
		}
		if err := b.IndexChunks(ctx, start, chunks[start:end], titleAt(titles, start)); err != nil {
			return err
		}
		start = end
	}
	return nil
}

func titleAt(titles []string, i int) string {
	if i < len(titles) {
		return titles[i]
	}
	return ""
}

// Search runs a match query over content and title and returns up to limit hits
// with highlighted content fragments.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	var q blevequery.Query
	if opts != nil && opts.FuzzyEnabled {
		q = buildFuzzyQuery(query, opts.Fuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"title", "position"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hit := &Hit{Position: pos, Score: h.Score, Fragments: h.Fragments["content"]}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		out = append(out, hit)
	}
	return out, nil
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per query term.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	if fuzziness <= 0 {
		fuzziness = 1
	}
	terms := strings.Fields(strings.ToLower(queryStr))
	if len(terms) == 0 {
		return bleve.NewMatchQuery(queryStr)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// normalizeTitle replaces underscores by spaces so the standard analyzer splits
// file names like "faculty_handbook_2021.pdf" into words.
func normalizeTitle(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
