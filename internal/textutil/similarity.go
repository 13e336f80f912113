package textutil

// CosineSimilarity returns 0 when either fingerprint is nil or empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Index holds fingerprints for nearest-match lookups.
type Index struct {
	entries []*Fingerprint
}

// Add registers text; texts without tokens are ignored.
func (i *Index) Add(text string) {
	if fp := NewFingerprint(text); fp != nil {
		i.entries = append(i.entries, fp)
	}
}

// Len reports how many fingerprints the index holds.
func (i *Index) Len() int { return len(i.entries) }

// Best returns the highest similarity between text and any indexed entry.
func (i *Index) Best(text string) float64 {
	fp := NewFingerprint(text)
	var best float64
	for _, entry := range i.entries {
		if score := CosineSimilarity(fp, entry); score > best {
			best = score
		}
	}
	return best
}
