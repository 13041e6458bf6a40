package session

import "strings"

// Intent classifies a transcript before submission. A repeat intent becomes a
// re-delivery request; a skip intent submits an empty answer.
type Intent int

const (
	IntentAnswer Intent = iota
	IntentRepeat
	IntentSkip
)

var repeatPhrases = []string{
	"repeat the question",
	"say that again",
	"once again",
	"say again",
	"repeat",
}

var skipPhrases = []string{
	"i don't know",
	"i dont know",
	"no idea",
	"can't answer",
	"cant answer",
	"skip",
}

// MatchIntent scans the transcript for control phrases. Repeat wins over skip
// when both appear.
func MatchIntent(text string) Intent {
	t := strings.ToLower(text)
	for _, p := range repeatPhrases {
		if strings.Contains(t, p) {
			return IntentRepeat
		}
	}
	for _, p := range skipPhrases {
		if strings.Contains(t, p) {
			return IntentSkip
		}
	}
	return IntentAnswer
}
