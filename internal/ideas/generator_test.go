package ideas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/provider"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

type cannedText struct {
	reply  string
	err    error
	prompt string
}

func (c *cannedText) Request(_ context.Context, req provider.Request) (string, error) {
	c.prompt = req.Prompt
	return c.reply, c.err
}

func ideasConfig() config.Ideas {
	return config.Ideas{
		Count:       2,
		TextDetails: "short motivational quotes",
		ImageTags:   "minimalist, pastel",
		Languages:   []string{"en", "pt"},
	}
}

const twoIdeas = "Here you go:\n```json\n[\n" +
	`{"texts":{"en":"Keep going.","pt":"Continue."},"image_prompt":"minimalist, pastel, road","captions":{"en":"Go","pt":"Vai"},"languages":["en","pt"]},` + "\n" +
	`{"texts":{"en":"Rest well."},"image_prompt":"minimalist, pastel, bed","languages":["en","pt"]}` +
	"\n]\n```"

func TestPromptIncludesSettings(t *testing.T) {
	prompt := Prompt(ideasConfig())
	for _, want := range []string{
		"Create 2 texts for social media.",
		"Text details: short motivational quotes",
		"First tags are: minimalist, pastel",
		"English, Portuguese",
		" en, pt\n",
		`"image_prompt"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateDropsInvalidIdeas(t *testing.T) {
	text := &cannedText{reply: twoIdeas}
	gen := NewGenerator(text, ideasConfig(), logging.NewNop())
	drafts, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 valid draft (second lacks pt text), got %d", len(drafts))
	}
	if got := drafts[0].Idea.Text("pt"); got != "Continue." {
		t.Fatalf("pt text = %q", got)
	}
	if !strings.Contains(text.prompt, "Create 2 texts") {
		t.Fatalf("provider received unexpected prompt %q", text.prompt)
	}
}

func TestGenerateNoValidIdeas(t *testing.T) {
	gen := NewGenerator(&cannedText{reply: `[{"texts":{}}]`}, ideasConfig(), nil)
	if _, err := gen.Generate(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	boom := errors.New("boom")
	gen := NewGenerator(&cannedText{err: boom}, ideasConfig(), nil)
	if _, err := gen.Generate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestCreateWritesEntities(t *testing.T) {
	root := t.TempDir()
	gen := NewGenerator(&cannedText{reply: twoIdeas}, ideasConfig(), nil)
	entities, err := gen.Create(context.Background(), root)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	entity := entities[0]
	if entity.Current() != stage.Initialized {
		t.Fatalf("current = %s", entity.Current())
	}
	if filepath.Dir(entity.Dir()) != filepath.Join(root, content.KindShortVideo) {
		t.Fatalf("unexpected dir %s", entity.Dir())
	}
	if _, err := os.Stat(filepath.Join(entity.Dir(), content.IdeaFileName)); err != nil {
		t.Fatalf("idea file: %v", err)
	}
}

func TestExtractVariants(t *testing.T) {
	cases := map[string]int{
		`[{"a":1},{"b":2}]`:                      2,
		"```\n[{\"a\":1}]\n```":                  1,
		`{"a":1}`:                                1,
		"first {\"a\":1} then {\"b\":{\"c\":2}}": 2,
	}
	for reply, want := range cases {
		got, err := Extract(reply)
		if err != nil {
			t.Fatalf("Extract(%q): %v", reply, err)
		}
		if len(got) != want {
			t.Fatalf("Extract(%q) = %d objects, want %d", reply, len(got), want)
		}
	}
	if _, err := Extract("no json here"); err == nil {
		t.Fatal("expected error for reply without json")
	}
}

const repeatedIdeas = `[
{"texts":{"en":"Keep going, the sunrise is near.","pt":"Continue, o nascer do sol está perto."},"image_prompt":"road","languages":["en","pt"]},
{"texts":{"en":"Keep going! The sunrise is near.","pt":"Continue! O nascer do sol está perto."},"image_prompt":"sky","languages":["en","pt"]},
{"texts":{"en":"Rest well tonight, tomorrow waits.","pt":"Descanse bem hoje, amanhã espera."},"image_prompt":"bed","languages":["en","pt"]}
]`

func TestGenerateDropsDuplicates(t *testing.T) {
	gen := NewGenerator(&cannedText{reply: repeatedIdeas}, ideasConfig(), nil)
	drafts, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected repeated idea dropped, got %d drafts", len(drafts))
	}
	if got := drafts[1].Idea.Text("en"); !strings.HasPrefix(got, "Rest well") {
		t.Fatalf("unexpected second draft %q", got)
	}
}

func TestGenerateAvoidsExistingIdeas(t *testing.T) {
	kind, err := content.LookupKind(content.KindShortVideo)
	if err != nil {
		t.Fatalf("LookupKind: %v", err)
	}
	existing, err := kind.Decode([]byte(`{"texts":{"en":"Rest well tonight, tomorrow waits.","pt":"Descanse bem hoje, amanhã espera."},"image_prompt":"bed","languages":["en","pt"]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gen := NewGenerator(&cannedText{reply: repeatedIdeas}, ideasConfig(), nil)
	gen.Avoid(existing)
	drafts, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(drafts) != 1 || !strings.HasPrefix(drafts[0].Idea.Text("en"), "Keep going") {
		t.Fatalf("unexpected drafts %+v", drafts)
	}
}
