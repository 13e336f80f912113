package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/provider"
	"reelforge/internal/services"
	"reelforge/internal/services/llm"
	"reelforge/internal/textutil"
)

// Draft is one validated idea extracted from a text reply.
type Draft struct {
	Raw  json.RawMessage
	Idea content.Idea
}

// DuplicateThreshold is the cosine similarity at or above which a generated
// idea counts as a repeat of an earlier one.
const DuplicateThreshold = 0.8

// Generator asks the text provider for short-video ideas.
type Generator struct {
	text   provider.Provider
	cfg    config.Ideas
	logger *slog.Logger
	seen   textutil.Index
}

// NewGenerator constructs a generator over the text provider.
func NewGenerator(text provider.Provider, cfg config.Ideas, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{text: text, cfg: cfg, logger: logging.NewComponentLogger(logger, "ideas")}
}

// Avoid registers existing ideas; generated ideas too close to any of them
// are dropped.
func (g *Generator) Avoid(existing ...content.Idea) {
	for _, idea := range existing {
		g.seen.Add(ideaText(idea))
	}
}

func ideaText(idea content.Idea) string {
	parts := make([]string, 0, len(idea.LanguageCodes()))
	for _, code := range idea.LanguageCodes() {
		parts = append(parts, idea.Text(code))
	}
	return strings.Join(parts, " ")
}

// Generate requests ideas and returns those that validate. Invalid entries are
// logged and dropped; a reply with no valid idea is an error.
func (g *Generator) Generate(ctx context.Context) ([]Draft, error) {
	if g.text == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "generate ideas", "text provider not configured", nil)
	}
	prompt := Prompt(g.cfg)
	g.logger.Info("requesting ideas",
		logging.String(logging.FieldEventType, "ideas_requested"),
		logging.Int("count", g.cfg.Count),
		logging.Strings("languages", g.cfg.Languages),
	)
	reply, err := g.text.Request(ctx, provider.Request{Kind: provider.KindText, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	raws, err := Extract(reply)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "", "generate ideas", "decode reply", err)
	}
	kind, err := content.LookupKind(content.KindShortVideo)
	if err != nil {
		return nil, err
	}

	drafts := make([]Draft, 0, len(raws))
	duplicates := 0
	for i, raw := range raws {
		idea, err := kind.Decode(raw)
		if err != nil {
			logging.WarnWithContext(g.logger, "idea rejected", "idea_rejected",
				logging.Int("index", i),
				logging.Error(err),
				logging.String(logging.FieldImpact, "idea skipped"),
				logging.String(logging.FieldErrorHint, "rerun ideas or adjust ideas.text_details"),
			)
			continue
		}
		text := ideaText(idea)
		if score := g.seen.Best(text); score >= DuplicateThreshold {
			logging.WarnWithContext(g.logger, "duplicate idea dropped", "idea_duplicate",
				logging.Int("index", i),
				logging.Float64("similarity", score),
				logging.String(logging.FieldImpact, "idea skipped"),
				logging.String(logging.FieldErrorHint, "vary ideas.text_details to widen the topic"),
			)
			duplicates++
			continue
		}
		g.seen.Add(text)
		drafts = append(drafts, Draft{Raw: raw, Idea: idea})
	}
	if len(drafts) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "", "generate ideas",
			fmt.Sprintf("none of %d ideas validated (%d duplicates)", len(raws), duplicates), nil)
	}
	g.logger.Info("ideas generated",
		logging.String(logging.FieldEventType, "ideas_generated"),
		logging.Int("valid", len(drafts)),
		logging.Int("rejected", len(raws)-len(drafts)-duplicates),
		logging.Int("duplicates", duplicates),
	)
	return drafts, nil
}

// Create generates ideas and allocates one content entity per valid idea
// under root.
func (g *Generator) Create(ctx context.Context, root string) ([]*content.Entity, error) {
	drafts, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := content.LookupKind(content.KindShortVideo)
	if err != nil {
		return nil, err
	}
	entities := make([]*content.Entity, 0, len(drafts))
	for _, draft := range drafts {
		entity, err := content.Create(ctx, root, kind, draft.Raw)
		if err != nil {
			return entities, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Extract pulls idea objects out of a model reply. It accepts a JSON array
// (optionally fenced or wrapped in prose), a single object, or a run of
// bare objects.
func Extract(reply string) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := llm.DecodeLLMJSON(reply, &list); err == nil && len(list) > 0 {
		return objectsOnly(list), nil
	}
	objects := scanObjects(reply)
	if len(objects) == 0 {
		return nil, errors.New("no json objects in reply")
	}
	return objects, nil
}

func objectsOnly(items []json.RawMessage) []json.RawMessage {
	out := items[:0]
	for _, item := range items {
		if trimmed := strings.TrimSpace(string(item)); strings.HasPrefix(trimmed, "{") {
			out = append(out, item)
		}
	}
	return out
}

// scanObjects decodes every top-level JSON object found in text.
func scanObjects(text string) []json.RawMessage {
	var out []json.RawMessage
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start < 0 {
			break
		}
		start += i
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			i = start + 1
			continue
		}
		out = append(out, raw)
		i = start + int(dec.InputOffset())
	}
	return out
}
