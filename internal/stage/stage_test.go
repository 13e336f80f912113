package stage

import "testing"

func TestOrdinalsAreStrictlyIncreasing(t *testing.T) {
	names := Names()
	for i, name := range names {
		ord, ok := Ordinal(name)
		if !ok {
			t.Fatalf("missing ordinal for %s", name)
		}
		if ord != i {
			t.Fatalf("ordinal(%s) = %d, want %d", name, ord, i)
		}
	}
	if Terminal() != names[len(names)-1] {
		t.Fatalf("terminal stage mismatch: %s", Terminal())
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	name, ok := Parse(" video_created\n")
	if !ok || name != VideoCreated {
		t.Fatalf("Parse returned %q %v", name, ok)
	}
	if _, ok := Parse("audio_created"); ok {
		t.Fatal("expected unknown token to be rejected")
	}
}

func TestReached(t *testing.T) {
	if !Reached(VideoEdited, SpeechCreated) {
		t.Fatal("video_edited should reach speech_created")
	}
	if !Reached(ImageCreated, ImageCreated) {
		t.Fatal("a stage reaches itself")
	}
	if Reached(ImageCreated, VideoCreated) {
		t.Fatal("image_created does not reach video_created")
	}
	if Reached("bogus", Initialized) {
		t.Fatal("unknown current never reaches")
	}
}

func TestTableOrderAndLookup(t *testing.T) {
	table, err := NewTable(
		Artifact{Stage: VideoCreated, Path: "/c/video.mp4"},
		Artifact{Stage: Initialized},
		Artifact{Stage: SubtitlesAdded, Languages: map[string]string{"pt": "/c/pt_final.mp4", "en": "/c/en_final.mp4"}},
		Artifact{Stage: ImageCreated, Path: "/c/image.jpg"},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	names := table.Names()
	want := []Name{Initialized, ImageCreated, VideoCreated, SubtitlesAdded}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if table.Has(SpeechCreated) {
		t.Fatal("table should not include speech_created")
	}
	if table.Last() != SubtitlesAdded {
		t.Fatalf("Last() = %s", table.Last())
	}
	final, _ := table.Lookup(SubtitlesAdded)
	if path, ok := final.For("pt"); !ok || path != "/c/pt_final.mp4" {
		t.Fatalf("For(pt) = %q %v", path, ok)
	}
	if paths := final.Paths(); len(paths) != 2 || paths[0] != "/c/en_final.mp4" {
		t.Fatalf("Paths() = %v", paths)
	}
	video, _ := table.Lookup(VideoCreated)
	if path, ok := video.For("en"); !ok || path != "/c/video.mp4" {
		t.Fatalf("single-output For = %q %v", path, ok)
	}
}

func TestNewTableRejectsBadInput(t *testing.T) {
	if _, err := NewTable(Artifact{Stage: ImageCreated}); err == nil {
		t.Fatal("expected missing initialized to fail")
	}
	if _, err := NewTable(Artifact{Stage: Initialized}, Artifact{Stage: "bogus"}); err == nil {
		t.Fatal("expected unknown stage to fail")
	}
	if _, err := NewTable(Artifact{Stage: Initialized}, Artifact{Stage: Initialized}); err == nil {
		t.Fatal("expected duplicate stage to fail")
	}
}
