package textutil

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestTokenizeHandlesAccents(t *testing.T) {
	got := Tokenize("Não desista, é só o começo! 2026")
	want := []string{"não", "desista", "começo", "2026"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize = %v, want %v", got, want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := NewFingerprint("Keep going, the sunrise is near")
	b := NewFingerprint("keep GOING; the sunrise is near!")
	if score := CosineSimilarity(a, b); math.Abs(score-1) > 1e-9 {
		t.Fatalf("identical texts scored %f", score)
	}
	c := NewFingerprint("Rest well tonight")
	if score := CosineSimilarity(a, c); score != 0 {
		t.Fatalf("disjoint texts scored %f", score)
	}
	if CosineSimilarity(nil, a) != 0 || NewFingerprint("a b") != nil {
		t.Fatal("expected nil fingerprints to score zero")
	}
}

func TestIndexBest(t *testing.T) {
	var idx Index
	idx.Add("Keep going, the sunrise is near")
	idx.Add("ok")
	if idx.Len() != 1 {
		t.Fatalf("expected token-less text ignored, len=%d", idx.Len())
	}
	if score := idx.Best("keep going, sunrise near"); score < 0.8 {
		t.Fatalf("expected near duplicate, got %f", score)
	}
	if score := idx.Best("completely different words here"); score != 0 {
		t.Fatalf("expected no overlap, got %f", score)
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOf(rapid.SampledFrom([]string{"alpha", "beta", "gamma", "delta", "sol", "lua"}))
		a := NewFingerprint(joinWords(words.Draw(t, "a")))
		b := NewFingerprint(joinWords(words.Draw(t, "b")))
		ab := CosineSimilarity(a, b)
		if ab < 0 || ab > 1+1e-9 {
			t.Fatalf("similarity out of range: %f", ab)
		}
		if ba := CosineSimilarity(b, a); math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("similarity not symmetric: %f vs %f", ab, ba)
		}
	})
}

func joinWords(words []string) string {
	out := ""
	for _, w := range words {
		out += w + " "
	}
	return out
}
