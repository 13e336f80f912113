// Package media edits the pipeline's images, clips, and audio with ffmpeg.
//
// Every Editor operation is a single ffmpeg invocation (or a short chain of
// them) run through an injectable Runner. Outputs are written to a sibling
// ".partial" file and renamed into place, so an artifact path either holds a
// complete file or nothing. Failures surface as *ExecError, which matches
// services.ErrExternalTool.
package media
