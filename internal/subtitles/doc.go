// Package subtitles turns narration text or timed lyric cues into Advanced
// SubStation (ASS) scripts that ffmpeg burns into the final video.
package subtitles
