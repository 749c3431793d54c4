package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/qadesk/internal/vector"
)

func TestHashEmbedder_UnitLengthAndDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	for _, text := range []string{"hello world", "...", "", "Safety rules for the lab."} {
		a, err := e.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := e.Embed(ctx, text)
		if len(a) != 64 {
			t.Fatalf("len=%d", len(a))
		}
		var sum float64
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("embedding of %q not deterministic", text)
			}
			sum += float64(a[i] * a[i])
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("embedding of %q has squared norm %f", text, sum)
		}
	}
}

func TestHashEmbedder_SharedWordsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{
		"laboratory safety goggles required",
		"safety goggles in the laboratory",
		"quarterly budget spreadsheet",
	})
	if err != nil {
		t.Fatal(err)
	}
	near := vector.InnerProduct(vecs[0], vecs[1])
	far := vector.InnerProduct(vecs[0], vecs[2])
	if near <= far {
		t.Errorf("related texts scored %f, unrelated %f", near, far)
	}
}

func TestHashEmbedder_DefaultDimensions(t *testing.T) {
	if got := NewHashEmbedder(0).Dimensions(); got != 384 {
		t.Errorf("Dimensions=%d, want 384", got)
	}
}
