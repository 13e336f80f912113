// Package ideas generates short-video ideas with the text provider and turns
// each valid idea into a new content entity.
package ideas
