// Package staging sweeps the scratch files editing leaves in entity
// directories. Interrupted ffmpeg runs can strand ".partial" outputs and
// atomic writes can strand hidden ".tmp" files; neither is ever an artifact.
package staging
