// Package minimax drives Minimax image-to-video generation: submit a task
// with the first frame, poll until a file id appears, then retrieve and
// download the clip.
package minimax
