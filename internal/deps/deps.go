package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is an executable the editor shells out to.
type Tool struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Status is a Tool after PATH resolution. Path is empty unless Available.
type Status struct {
	Tool
	Path      string
	Available bool
	Detail    string
}

// MediaTools lists the binaries every editing stage needs.
func MediaTools(ffmpeg, ffprobe string) []Tool {
	return []Tool{
		{Name: "ffmpeg", Command: ffmpeg, Purpose: "clip rendering, audio mixing and subtitle burn-in"},
		{Name: "ffprobe", Command: ffprobe, Purpose: "clip and narration durations"},
	}
}

// Resolve looks every tool up on PATH.
func Resolve(tools []Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		status := Status{Tool: tool}
		switch path, err := exec.LookPath(tool.Command); {
		case tool.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", tool.Command)
		default:
			status.Path = path
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// CheckMediaTools resolves ffmpeg and ffprobe and, when ffmpeg is present,
// appends its feature check. A nil run uses exec.
func CheckMediaTools(ctx context.Context, ffmpeg, ffprobe string, run Runner) []Status {
	statuses := Resolve(MediaTools(ffmpeg, ffprobe))
	if statuses[0].Available {
		statuses = append(statuses, CheckFFmpegFeatures(ctx, statuses[0].Path, run))
	}
	return statuses
}
