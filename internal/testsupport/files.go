package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/content"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// ShortIdea returns a valid short-video idea document for languages.
func ShortIdea(t testing.TB, languages ...string) []byte {
	t.Helper()

	if len(languages) == 0 {
		languages = []string{"en"}
	}
	texts := make(map[string]string, len(languages))
	captions := make(map[string]string, len(languages))
	for _, code := range languages {
		texts[code] = "Hello from " + code + ". Keep going, friend!"
		captions[code] = "caption " + code
	}
	raw, err := json.Marshal(map[string]any{
		"texts":        texts,
		"image_prompt": "minimalist, pastel, sunrise",
		"captions":     captions,
		"languages":    languages,
	})
	if err != nil {
		t.Fatalf("marshal idea: %v", err)
	}
	return raw
}

// NewShortEntity creates a short-video entity under root.
func NewShortEntity(t testing.TB, root string, languages ...string) *content.Entity {
	t.Helper()

	kind, err := content.LookupKind(content.KindShortVideo)
	if err != nil {
		t.Fatalf("LookupKind: %v", err)
	}
	entity, err := content.Create(context.Background(), root, kind, ShortIdea(t, languages...))
	if err != nil {
		t.Fatalf("content.Create: %v", err)
	}
	return entity
}
