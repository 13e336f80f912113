package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	tools := []Tool{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := Resolve(tools)
	if len(results) != len(tools) {
		t.Fatalf("expected %d results, got %d", len(tools), len(results))
	}

	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first tool to resolve to %s, got %#v", present, results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available tool: %s", results[0].Detail)
	}

	if results[1].Available || results[1].Path != "" {
		t.Fatalf("expected missing binary to be unavailable, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestCheckMediaToolsSkipsFeaturesWithoutFFmpeg(t *testing.T) {
	called := false
	run := func(context.Context, string, ...string) ([]byte, error) {
		called = true
		return nil, nil
	}
	statuses := CheckMediaTools(context.Background(), "no-such-ffmpeg", "no-such-ffprobe", run)
	if len(statuses) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe only, got %#v", statuses)
	}
	if statuses[0].Name != "ffmpeg" || statuses[1].Name != "ffprobe" {
		t.Fatalf("unexpected tool order %#v", statuses)
	}
	if called {
		t.Fatal("feature listing ran without an ffmpeg binary")
	}
}

func TestCheckMediaToolsListsFeaturesFromResolvedPath(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	var gotBinary string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotBinary = name
		if args[len(args)-1] == "-encoders" {
			return []byte(encoderListing), nil
		}
		return []byte(filterListing), nil
	}
	statuses := CheckMediaTools(context.Background(), ffmpeg, "no-such-ffprobe", run)
	if len(statuses) != 3 {
		t.Fatalf("expected feature status appended, got %#v", statuses)
	}
	if !statuses[2].Available || gotBinary != ffmpeg {
		t.Fatalf("features not listed from %s: %#v (ran %q)", ffmpeg, statuses[2], gotBinary)
	}
	if statuses[1].Available {
		t.Fatalf("ffprobe should be missing, got %#v", statuses[1])
	}
}

const encoderListing = `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)
`

const filterListing = `Filters:
 ... amix              N->A       Audio mixing.
 ... subtitles         V->V       Render text subtitles onto input video using the libass library.
`

func TestCheckFFmpegFeatures(t *testing.T) {
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if args[len(args)-1] == "-encoders" {
			return []byte(encoderListing), nil
		}
		return []byte(filterListing), nil
	}
	status := CheckFFmpegFeatures(context.Background(), "ffmpeg", run)
	if !status.Available {
		t.Fatalf("expected available, got %#v", status)
	}
}

func TestCheckFFmpegFeaturesMissingLibass(t *testing.T) {
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if args[len(args)-1] == "-encoders" {
			return []byte(encoderListing), nil
		}
		return []byte(" ... amix   N->A  Audio mixing.\n"), nil
	}
	status := CheckFFmpegFeatures(context.Background(), "ffmpeg", run)
	if status.Available || !strings.Contains(status.Detail, "subtitles") {
		t.Fatalf("expected missing subtitles filter, got %#v", status)
	}
}

func TestCheckFFmpegFeaturesRunFailure(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: not found")
	}
	status := CheckFFmpegFeatures(context.Background(), "ffmpeg", run)
	if status.Available || !strings.Contains(status.Detail, "not found") {
		t.Fatalf("unexpected status %#v", status)
	}
}
