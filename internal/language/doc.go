// Package language normalizes the language codes carried by content ideas.
//
// Codes are canonicalized to BCP 47 with golang.org/x/text so "eng", "en",
// and "English" name the same branch of the pipeline, and the package
// supplies display names for prompts and ISO 639-2 codes for container
// metadata.
package language
