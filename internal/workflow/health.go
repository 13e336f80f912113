package workflow

import (
	"context"

	"reelforge/internal/deps"
	"reelforge/internal/stage"
)

// Health reports whether the pipeline can run: the editing binaries and
// every configured provider. With ping, providers that support it make a
// live request.
func (p *Pipeline) Health(ctx context.Context, ping bool) []stage.Health {
	var results []stage.Health
	for _, status := range deps.Resolve(deps.MediaTools(p.cfg.FFmpegBinary(), p.cfg.FFprobeBinary())) {
		if status.Available {
			results = append(results, stage.Healthy(status.Name))
			continue
		}
		results = append(results, stage.Unhealthy(status.Name, status.Detail))
	}
	return append(results, p.providers.Check(ctx, ping)...)
}

// Ready reports whether every check in results passed.
func Ready(results []stage.Health) bool {
	for _, h := range results {
		if !h.Ready {
			return false
		}
	}
	return true
}
