package workflow

import (
	"context"
	"os"

	"reelforge/internal/content"
	"reelforge/internal/stage"
	"reelforge/internal/subtitles"
)

// musicVideo has no speech stage: the soundtrack is the idea's section of
// its audio source, and the subtitles are the section's own timed lines.
func (r *run) musicVideo(ctx context.Context, idea *content.MusicVideoIdea) (map[string]string, error) {
	image, err := r.step(ctx, stage.ImageCreated, r.createImage(idea.Prompt()))
	if err != nil {
		return nil, err
	}
	video, err := r.step(ctx, stage.VideoCreated, r.createVideo(idea.Prompt(), image.Path))
	if err != nil {
		return nil, err
	}
	edited, err := r.step(ctx, stage.VideoEdited, func(ctx context.Context) (stage.Artifact, error) {
		return r.fanOut(ctx, stage.VideoEdited, func(ctx context.Context, code string) (string, error) {
			return r.editMusic(ctx, code, idea, video.Path)
		})
	})
	if err != nil {
		return nil, err
	}
	final, err := r.step(ctx, stage.SubtitlesAdded, func(ctx context.Context) (stage.Artifact, error) {
		return r.fanOut(ctx, stage.SubtitlesAdded, func(ctx context.Context, code string) (string, error) {
			source, _ := edited.For(code)
			return r.burn(ctx, code, source, sectionCues(idea))
		})
	})
	if err != nil {
		return nil, err
	}
	return final.Languages, nil
}

func (r *run) editMusic(ctx context.Context, code string, idea *content.MusicVideoIdea, video string) (string, error) {
	out, err := r.tablePath(stage.VideoEdited, code)
	if err != nil {
		return "", err
	}
	length := idea.Duration()
	extended := r.scratch("", "extended_video.mp4")
	section := r.scratch("", "section.mp3")
	defer os.Remove(extended)
	defer os.Remove(section)

	if err := r.extend(ctx, idea.Prompt(), video, extended, length); err != nil {
		return "", err
	}
	if err := r.p.editor.ExtractSection(ctx, idea.AudioSource, section, idea.Offset(), length); err != nil {
		return "", err
	}
	if err := r.p.editor.AttachAudio(ctx, extended, section, out); err != nil {
		return "", err
	}
	return out, nil
}

func sectionCues(idea *content.MusicVideoIdea) []subtitles.Cue {
	cues := idea.Cues()
	out := make([]subtitles.Cue, len(cues))
	for i, cue := range cues {
		out[i] = subtitles.Cue{Start: cue.Start, End: cue.End, Text: cue.Text}
	}
	return out
}
