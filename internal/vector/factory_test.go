package vector

import (
	"context"
	"testing"
)

func TestNewIndex_Flat(t *testing.T) {
	for _, typ := range []string{"flat", "memory", ""} {
		idx, err := NewIndex(typ, 3)
		if err != nil {
			t.Fatalf("NewIndex(%q): %v", typ, err)
		}
		if idx.Type() != string(IndexTypeFlat) || idx.Dimensions() != 3 {
			t.Errorf("NewIndex(%q): type=%s dim=%d", typ, idx.Type(), idx.Dimensions())
		}
		if err := idx.Add(context.Background(), [][]float32{{1, 0, 0}}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if idx.Size() != 1 {
			t.Errorf("Size=%d, want 1", idx.Size())
		}
		_ = idx.Close()
	}
}

func TestNewIndex_Unknown(t *testing.T) {
	if _, err := NewIndex("unknown", 3); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	idx, err := NewIndex("flat", 0)
	if err == nil {
		t.Error("expected error for zero dimension")
	}
	if idx != nil {
		t.Error("index should be nil on error")
	}
}

func TestNewIndex_FAISS(t *testing.T) {
	if !IsFAISSAvailable() {
		t.Skip("FAISS not available (build with -tags=faiss)")
	}
	idx, err := NewIndex("faiss", 3)
	if err != nil {
		t.Fatalf("NewIndex(faiss): %v", err)
	}
	defer idx.Close()
	ctx := context.Background()
	if err := idx.Add(ctx, [][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hits, err := idx.Search(ctx, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Position != 1 {
		t.Errorf("unexpected hits: %+v", hits)
	}
}
