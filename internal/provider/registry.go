package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
	"reelforge/internal/stage"
)

// Deps are the shared collaborators handed to provider factories.
type Deps struct {
	Editor *media.Editor
	Logger *slog.Logger
	Video  config.Video
	// Transport options are passed to every HTTP adapter (tests use this to
	// skip backoff sleeps).
	Transport []apiclient.Option
}

// Factory constructs a provider from its configuration section.
type Factory func(svc config.AIService, deps Deps) (Provider, error)

type entry struct {
	factory     Factory
	needsAPIKey bool
}

var registry = map[Kind]map[string]entry{
	KindText: {
		"openrouter": {factory: newOpenRouter, needsAPIKey: true},
	},
	KindImage: {
		"runware":     {factory: newRunware, needsAPIKey: true},
		"placeholder": {factory: newPlaceholder},
	},
	KindVideo: {
		"minimax":     {factory: newMinimax, needsAPIKey: true},
		"placeholder": {factory: newPlaceholder},
	},
	KindSpeech: {
		"elevenlabs":  {factory: newElevenLabs, needsAPIKey: true},
		"placeholder": {factory: newPlaceholder},
	},
}

// Names lists the provider names registered for kind.
func Names(kind Kind) []string {
	names := make([]string, 0, len(registry[kind]))
	for name := range registry[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set holds the resolved provider for each kind.
type Set struct {
	providers map[Kind]Provider
	names     map[Kind]string
}

// NewSet assembles a set from already constructed providers. Kinds left out
// are reported as unconfigured by For.
func NewSet(providers map[Kind]Provider) *Set {
	s := &Set{providers: make(map[Kind]Provider, len(providers)), names: make(map[Kind]string, len(providers))}
	for kind, p := range providers {
		s.providers[kind] = p
		s.names[kind] = fmt.Sprintf("%T", p)
	}
	return s
}

// Build resolves one provider for each of kinds, or for MediaKinds when none
// are given. Unknown provider names and missing credentials fail with
// services.ErrConfiguration.
func Build(cfg *config.Config, deps Deps, kinds ...Kind) (*Set, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build providers", "config is nil", nil)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	deps.Video = cfg.Video
	sections := map[Kind]config.AIService{
		KindText:   cfg.AI.Text,
		KindImage:  cfg.AI.Image,
		KindVideo:  cfg.AI.Video,
		KindSpeech: cfg.AI.Speech,
	}
	if len(kinds) == 0 {
		kinds = MediaKinds()
	}
	set := &Set{providers: make(map[Kind]Provider, len(kinds)), names: make(map[Kind]string, len(kinds))}
	for _, kind := range kinds {
		svc := sections[kind]
		p, err := build(kind, svc, deps)
		if err != nil {
			return nil, err
		}
		set.providers[kind] = p
		set.names[kind] = svc.Provider
	}
	return set, nil
}

// BuildKind resolves a single kind, for commands that need only one backend.
func BuildKind(kind Kind, svc config.AIService, deps Deps) (Provider, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return build(kind, svc, deps)
}

func build(kind Kind, svc config.AIService, deps Deps) (Provider, error) {
	key := fmt.Sprintf("ai.%s.provider", kind)
	factories, ok := registry[kind]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "", "build providers", "unknown provider kind "+string(kind), nil)
	}
	e, ok := factories[svc.Provider]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "", "build providers",
			fmt.Sprintf("%s: unknown provider %q (known: %v)", key, svc.Provider, Names(kind)), nil)
	}
	if e.needsAPIKey && svc.APIKey == "" {
		msg := fmt.Sprintf("ai.%s.api_key is required for %s", kind, svc.Provider)
		if env := config.ProviderKeyEnv(svc.Provider); env != "" {
			msg += " (or set " + env + ")"
		}
		return nil, services.Wrap(services.ErrConfiguration, "", "build providers", msg, nil)
	}
	p, err := e.factory(svc, deps)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build providers", key, err)
	}
	return p, nil
}

// For returns the provider for kind.
func (s *Set) For(kind Kind) (Provider, error) {
	if s != nil {
		if p, ok := s.providers[kind]; ok && p != nil {
			return p, nil
		}
	}
	return nil, services.Wrap(services.ErrConfiguration, "", "provider", "no provider configured for "+string(kind), nil)
}

// Request routes req to the provider for req.Kind.
func (s *Set) Request(ctx context.Context, req Request) (string, error) {
	p, err := s.For(req.Kind)
	if err != nil {
		return "", err
	}
	return p.Request(ctx, req)
}

// Name reports the configured provider name for kind.
func (s *Set) Name(kind Kind) string {
	if s == nil {
		return ""
	}
	return s.names[kind]
}

// Check reports the readiness of every kind in the set. With ping,
// providers that support it make a live request.
func (s *Set) Check(ctx context.Context, ping bool) []stage.Health {
	results := make([]stage.Health, 0, len(Kinds()))
	for _, kind := range Kinds() {
		p, err := s.For(kind)
		if err != nil {
			continue
		}
		label := fmt.Sprintf("%s provider (%s)", kind, s.Name(kind))
		pinger, ok := p.(Pinger)
		if !ping || !ok {
			results = append(results, stage.Healthy(label))
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			results = append(results, stage.Unhealthy(label, err.Error()))
			continue
		}
		results = append(results, stage.Healthy(label))
	}
	return results
}
