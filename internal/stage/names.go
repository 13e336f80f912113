package stage

import "strings"

// Name identifies a pipeline stage. The ledger stores exactly these tokens.
type Name string

const (
	Initialized    Name = "initialized"
	ImageCreated   Name = "image_created"
	VideoCreated   Name = "video_created"
	SpeechCreated  Name = "speech_created"
	VideoEdited    Name = "video_edited"
	SubtitlesAdded Name = "subtitles_added"
)

// ordinals is the fixed, process-wide total order of stages.
var ordinals = map[Name]int{
	Initialized:    0,
	ImageCreated:   1,
	VideoCreated:   2,
	SpeechCreated:  3,
	VideoEdited:    4,
	SubtitlesAdded: 5,
}

var ordered = []Name{Initialized, ImageCreated, VideoCreated, SpeechCreated, VideoEdited, SubtitlesAdded}

// Ordinal returns the position of name in the stage order.
func Ordinal(name Name) (int, bool) {
	ord, ok := ordinals[name]
	return ord, ok
}

// Names returns every stage in ordinal order.
func Names() []Name {
	return append([]Name(nil), ordered...)
}

// Terminal returns the final stage.
func Terminal() Name {
	return SubtitlesAdded
}

// Parse converts a ledger token into a Name, trimming whitespace.
func Parse(token string) (Name, bool) {
	name := Name(strings.TrimSpace(token))
	if _, ok := ordinals[name]; !ok {
		return "", false
	}
	return name, true
}

// Reached reports whether current is at or beyond target. Unknown names are
// never reached.
func Reached(current, target Name) bool {
	cur, ok := ordinals[current]
	if !ok {
		return false
	}
	tgt, ok := ordinals[target]
	if !ok {
		return false
	}
	return cur >= tgt
}

func (n Name) String() string { return string(n) }
