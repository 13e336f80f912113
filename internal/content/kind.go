package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"reelforge/internal/services"
	"reelforge/internal/stage"
)

// Kind names recognized in idea.json and on the command line.
const (
	KindShortVideo = "short_video"
	KindMusicVideo = "music_video"
)

// Kind captures what differs between content types: how the idea is decoded
// and which artifact each stage produces. The stage order is shared.
type Kind interface {
	Name() string
	Decode(raw []byte) (Idea, error)
	Table(dir string, idea Idea) (stage.Table, error)
}

var registry = map[string]Kind{
	KindShortVideo: shortVideo{},
	KindMusicVideo: musicVideo{},
}

// LookupKind resolves a kind by name.
func LookupKind(name string) (Kind, error) {
	kind, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "", "kind", fmt.Sprintf("unknown content kind %q (known: %s)", name, strings.Join(KindNames(), ", ")), nil)
	}
	return kind, nil
}

// KindNames lists registered kinds in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectKind returns the kind field recorded in raw, or "" when absent.
func DetectKind(raw []byte) string {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.Kind)
}

type shortVideo struct{}

func (shortVideo) Name() string { return KindShortVideo }

func (k shortVideo) Decode(raw []byte) (Idea, error) {
	var doc struct {
		Kind string `json:"kind,omitempty"`
		ShortVideoIdea
	}
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if err := checkKindField(doc.Kind, k.Name()); err != nil {
		return nil, err
	}
	idea := doc.ShortVideoIdea
	if err := idea.normalize(); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (shortVideo) Table(dir string, idea Idea) (stage.Table, error) {
	codes := idea.LanguageCodes()
	perLanguage := func(suffix string) map[string]string {
		out := make(map[string]string, len(codes))
		for _, code := range codes {
			out[code] = filepath.Join(dir, code+suffix)
		}
		return out
	}
	return stage.NewTable(
		stage.Artifact{Stage: stage.Initialized},
		stage.Artifact{Stage: stage.ImageCreated, Path: filepath.Join(dir, "image.jpg")},
		stage.Artifact{Stage: stage.VideoCreated, Path: filepath.Join(dir, "video.mp4")},
		stage.Artifact{Stage: stage.SpeechCreated, Languages: perLanguage("_speech.mp3")},
		stage.Artifact{Stage: stage.VideoEdited, Languages: perLanguage("_edited_video.mp4")},
		stage.Artifact{Stage: stage.SubtitlesAdded, Languages: perLanguage("_final.mp4")},
	)
}

type musicVideo struct{}

func (musicVideo) Name() string { return KindMusicVideo }

func (k musicVideo) Decode(raw []byte) (Idea, error) {
	var doc struct {
		Kind string `json:"kind,omitempty"`
		MusicVideoIdea
	}
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if err := checkKindField(doc.Kind, k.Name()); err != nil {
		return nil, err
	}
	idea := doc.MusicVideoIdea
	if err := idea.normalize(); err != nil {
		return nil, err
	}
	return &idea, nil
}

// Table has no speech stage: the soundtrack is cut from the audio source.
func (musicVideo) Table(dir string, idea Idea) (stage.Table, error) {
	code := idea.LanguageCodes()[0]
	return stage.NewTable(
		stage.Artifact{Stage: stage.Initialized},
		stage.Artifact{Stage: stage.ImageCreated, Path: filepath.Join(dir, "image.jpg")},
		stage.Artifact{Stage: stage.VideoCreated, Path: filepath.Join(dir, "video.mp4")},
		stage.Artifact{Stage: stage.VideoEdited, Languages: map[string]string{code: filepath.Join(dir, "edited_video.mp4")}},
		stage.Artifact{Stage: stage.SubtitlesAdded, Languages: map[string]string{code: filepath.Join(dir, "final.mp4")}},
	)
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return services.Wrap(services.ErrValidation, "", "idea", "decode", err)
	}
	return nil
}

func checkKindField(recorded, want string) error {
	if recorded == "" || recorded == want {
		return nil
	}
	return services.Wrap(services.ErrValidation, "", "idea", fmt.Sprintf("idea is %q, not %q", recorded, want), nil)
}

// encodeIdea renders idea.json: the idea's own fields plus the kind.
func encodeIdea(kind Kind, idea Idea) ([]byte, error) {
	body, err := json.Marshal(idea)
	if err != nil {
		return nil, fmt.Errorf("encode idea: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode idea: %w", err)
	}
	name, err := json.Marshal(kind.Name())
	if err != nil {
		return nil, fmt.Errorf("encode idea: %w", err)
	}
	fields["kind"] = name
	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode idea: %w", err)
	}
	return append(out, '\n'), nil
}
