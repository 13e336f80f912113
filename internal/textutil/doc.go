// Package textutil compares short texts by token overlap. Fingerprints are
// term-frequency vectors over lowercased letter/digit runs of at least three
// runes, so accented and non-Latin scripts tokenize the same way ASCII does.
package textutil
