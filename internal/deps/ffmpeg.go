package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ffmpegFeatures lists the encoders and filters the editing pipeline invokes.
var ffmpegFeatures = []struct {
	listFlag string
	name     string
	purpose  string
}{
	{listFlag: "-encoders", name: "libx264", purpose: "clip rendering"},
	{listFlag: "-encoders", name: "libmp3lame", purpose: "audio mixing"},
	{listFlag: "-filters", name: "subtitles", purpose: "caption burn-in (libass)"},
	{listFlag: "-filters", name: "amix", purpose: "background music"},
}

// CheckFFmpegFeatures reports whether ffmpeg was built with everything the
// editor needs. A nil run uses exec.
func CheckFFmpegFeatures(ctx context.Context, binary string, run Runner) Status {
	result := Status{Tool: Tool{
		Name:    "ffmpeg features",
		Command: binary,
		Purpose: "encoders and filters used for editing",
	}}
	if run == nil {
		run = execRunner
	}
	listings := make(map[string]string, 2)
	var missing []string
	for _, feature := range ffmpegFeatures {
		listing, ok := listings[feature.listFlag]
		if !ok {
			out, err := run(ctx, binary, "-hide_banner", feature.listFlag)
			if err != nil {
				result.Detail = fmt.Sprintf("%s %s failed: %v", binary, feature.listFlag, err)
				return result
			}
			listing = string(out)
			listings[feature.listFlag] = listing
		}
		if !listsName(listing, feature.name) {
			missing = append(missing, fmt.Sprintf("%s (%s)", feature.name, feature.purpose))
		}
	}
	if len(missing) > 0 {
		result.Detail = "missing " + strings.Join(missing, ", ")
		return result
	}
	result.Available = true
	return result
}

// listsName reports whether a -encoders/-filters listing has a row for name.
// Rows look like " V..... libx264  H.264 ..." or " ... subtitles  V->V  ...".
func listsName(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}
