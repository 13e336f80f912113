package ideas

import (
	"fmt"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/language"
)

// Prompt builds the short-video idea request sent to the text provider.
func Prompt(cfg config.Ideas) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d texts for social media.\n", cfg.Count)
	b.WriteString("Don't include emojis\n\n")
	fmt.Fprintf(&b, "Text details: %s\n\n", cfg.TextDetails)
	b.WriteString("For each text write a prompt for creating an image that follows it. ")
	b.WriteString("Image prompt should be in the following format: tag1, tag2, tag3, etc. ")
	fmt.Fprintf(&b, "First tags are: %s\n\n", cfg.ImageTags)
	b.WriteString("For each text and image write a caption that follows it.\n")
	b.WriteString("Don't include hashtags.\n\n")
	b.WriteString("Make a version of the text and caption to each of the following languages:\n")
	fmt.Fprintf(&b, " %s\n\n", strings.Join(language.DisplayNames(cfg.Languages), ", "))
	b.WriteString("The result should be given as a json array in the following way.\n")
	b.WriteString("Languages should be represented by their respective codes:\n")
	fmt.Fprintf(&b, " %s\n", strings.Join(cfg.Languages, ", "))
	b.WriteString(`[
    {
        "texts": {"language1": "the language1 text goes here",
                "language2": "the language2 text goes here",
                "etc..."},
        "image_prompt": "the image prompt goes here",
        "captions": {"language1": "the language1 caption goes here",
                "language2": "the language2 caption goes here",
                "etc..."},
        "languages": ["language1", "language2"]
    },
    {etc..}
]
`)
	return b.String()
}
