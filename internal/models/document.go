// Package models defines core data structures for documents, chunks, queries and agent results.
package models

import "time"

// Document is a catalog record for one ingested file.
// Its chunks occupy positions [FirstChunk, FirstChunk+ChunkCount) of the store.
type Document struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	SourcePath  string    `json:"source_path" db:"source_path"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	Pages       int       `json:"pages" db:"pages"`
	FirstChunk  int       `json:"first_chunk" db:"first_chunk"`
	ChunkCount  int       `json:"chunk_count" db:"chunk_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Contains reports whether the chunk at position pos belongs to d.
func (d *Document) Contains(pos int) bool {
	return pos >= d.FirstChunk && pos < d.FirstChunk+d.ChunkCount
}

// Chunk is a retrieved text segment with its store position and similarity score.
type Chunk struct {
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}
