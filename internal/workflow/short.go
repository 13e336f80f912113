package workflow

import (
	"context"
	"os"

	"reelforge/internal/content"
	"reelforge/internal/provider"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/subtitles"
)

func (r *run) shortVideo(ctx context.Context, idea *content.ShortVideoIdea) (map[string]string, error) {
	image, err := r.step(ctx, stage.ImageCreated, r.createImage(idea.Prompt()))
	if err != nil {
		return nil, err
	}
	video, err := r.step(ctx, stage.VideoCreated, r.createVideo(idea.Prompt(), image.Path))
	if err != nil {
		return nil, err
	}
	speech, err := r.step(ctx, stage.SpeechCreated, func(ctx context.Context) (stage.Artifact, error) {
		return r.fanOut(ctx, stage.SpeechCreated, func(ctx context.Context, code string) (string, error) {
			return r.synthesize(ctx, code, idea.Text(code))
		})
	})
	if err != nil {
		return nil, err
	}
	edited, err := r.step(ctx, stage.VideoEdited, func(ctx context.Context) (stage.Artifact, error) {
		return r.fanOut(ctx, stage.VideoEdited, func(ctx context.Context, code string) (string, error) {
			audio, _ := speech.For(code)
			return r.editNarrated(ctx, code, idea.Prompt(), video.Path, audio)
		})
	})
	if err != nil {
		return nil, err
	}
	final, err := r.step(ctx, stage.SubtitlesAdded, func(ctx context.Context) (stage.Artifact, error) {
		return r.fanOut(ctx, stage.SubtitlesAdded, func(ctx context.Context, code string) (string, error) {
			source, _ := edited.For(code)
			return r.subtitleNarrated(ctx, code, idea.Text(code), source)
		})
	})
	if err != nil {
		return nil, err
	}
	return final.Languages, nil
}

func (r *run) createImage(prompt string) func(context.Context) (stage.Artifact, error) {
	return func(ctx context.Context) (stage.Artifact, error) {
		out, err := r.tablePath(stage.ImageCreated, "")
		if err != nil {
			return stage.Artifact{}, err
		}
		path, err := r.p.providers.Request(ctx, provider.Request{
			Kind:       provider.KindImage,
			Prompt:     prompt,
			OutputPath: out,
		})
		if err != nil {
			return stage.Artifact{}, err
		}
		return stage.Artifact{Stage: stage.ImageCreated, Path: path}, nil
	}
}

// createVideo animates the image: a still clip for static_image, or the video
// provider with the image as first frame for ai.
func (r *run) createVideo(prompt, image string) func(context.Context) (stage.Artifact, error) {
	return func(ctx context.Context) (stage.Artifact, error) {
		out, err := r.tablePath(stage.VideoCreated, "")
		if err != nil {
			return stage.Artifact{}, err
		}
		switch r.p.cfg.Video.CreationMethod {
		case "ai":
			if _, err := r.p.providers.Request(ctx, provider.Request{
				Kind:       provider.KindVideo,
				Prompt:     prompt,
				InputPath:  image,
				OutputPath: out,
			}); err != nil {
				return stage.Artifact{}, err
			}
		default:
			if err := r.p.editor.StillToVideo(ctx, image, out, r.p.cfg.Video.StaticDuration); err != nil {
				return stage.Artifact{}, err
			}
		}
		return stage.Artifact{Stage: stage.VideoCreated, Path: out}, nil
	}
}

// synthesize writes one language's narration and pads it with trailing
// silence.
func (r *run) synthesize(ctx context.Context, code, text string) (string, error) {
	out, err := r.tablePath(stage.SpeechCreated, code)
	if err != nil {
		return "", err
	}
	silence := r.p.cfg.Audio.SilenceDuration
	target := out
	if silence > 0 {
		target = r.scratch(code, "speech_raw.mp3")
		defer os.Remove(target)
	}
	if _, err := r.p.providers.Request(ctx, provider.Request{
		Kind:       provider.KindSpeech,
		Prompt:     text,
		OutputPath: target,
		Params:     map[string]string{"language": code},
	}); err != nil {
		return "", err
	}
	if silence > 0 {
		if err := r.p.editor.AppendSilence(ctx, target, out, silence); err != nil {
			return "", err
		}
	}
	return out, nil
}

// editNarrated stretches the clip to the narration, mixes in background
// audio when configured, and muxes the result.
func (r *run) editNarrated(ctx context.Context, code, prompt, video, speech string) (string, error) {
	out, err := r.tablePath(stage.VideoEdited, code)
	if err != nil {
		return "", err
	}
	length, err := r.p.editor.Duration(ctx, speech)
	if err != nil {
		return "", err
	}
	extended := r.scratch(code, "extended_video.mp4")
	defer os.Remove(extended)
	if err := r.extend(ctx, prompt, video, extended, length); err != nil {
		return "", err
	}
	audio, cleanup, err := r.withBackground(ctx, code, speech, length)
	if err != nil {
		return "", err
	}
	defer cleanup()
	if err := r.p.editor.AttachAudio(ctx, extended, audio, out); err != nil {
		return "", err
	}
	return out, nil
}

// extend stretches in to target seconds with the configured method.
func (r *run) extend(ctx context.Context, prompt, in, out string, target float64) error {
	if r.p.cfg.Video.ExtensionMethod != "ai" {
		return r.p.editor.ExtendLoop(ctx, in, out, target)
	}
	return r.p.editor.ExtendAI(ctx, in, out, target, func(ctx context.Context, frame, clip string) error {
		_, err := r.p.providers.Request(ctx, provider.Request{
			Kind:       provider.KindVideo,
			Prompt:     prompt,
			InputPath:  frame,
			OutputPath: clip,
		})
		return err
	})
}

// withBackground mixes a random section of the background source under
// primary. Without a background it returns primary unchanged.
func (r *run) withBackground(ctx context.Context, code, primary string, length float64) (string, func(), error) {
	noop := func() {}
	source := r.p.cfg.Audio.BackgroundPath
	if source == "" {
		return primary, noop, nil
	}
	track, err := r.p.editor.PickBackground(source)
	if err != nil {
		return "", noop, err
	}
	section := r.scratch(code, "background.mp3")
	mixed := r.scratch(code, "mixed_audio.mp3")
	cleanup := func() {
		_ = os.Remove(section)
		_ = os.Remove(mixed)
	}
	if err := r.p.editor.RandomSection(ctx, track, section, length); err != nil {
		cleanup()
		return "", noop, err
	}
	if err := r.p.editor.Mix(ctx, primary, section, mixed, r.p.cfg.Audio.RelativeVolume); err != nil {
		cleanup()
		return "", noop, err
	}
	return mixed, cleanup, nil
}

// subtitleNarrated times the text proportionally over the spoken part of the
// video (its length minus the trailing silence) and burns it in.
func (r *run) subtitleNarrated(ctx context.Context, code, text, video string) (string, error) {
	length, err := r.p.editor.Duration(ctx, video)
	if err != nil {
		return "", err
	}
	spoken := length - r.p.cfg.Audio.SilenceDuration
	if spoken <= 0 {
		spoken = length
	}
	cues, err := subtitles.Proportional(text, spoken)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, string(stage.SubtitlesAdded), "subtitles", "time cues for "+code, err)
	}
	return r.burn(ctx, code, video, cues)
}

func (r *run) burn(ctx context.Context, code, video string, cues []subtitles.Cue) (string, error) {
	out, err := r.tablePath(stage.SubtitlesAdded, code)
	if err != nil {
		return "", err
	}
	script := r.scratch(code, "subtitles.ass")
	if err := subtitles.WriteFile(script, r.p.style, cues); err != nil {
		return "", err
	}
	if err := r.p.editor.BurnSubtitles(ctx, video, script, out); err != nil {
		return "", err
	}
	if err := r.p.editor.Verify(ctx, out, true); err != nil {
		return "", err
	}
	return out, nil
}
