package assistant

import (
	"regexp"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/common"
)

var (
	prepositions = []string{"in", "at", "for"}
	stopwords    = []string{"weather", "temperature", "forecast"}

	voicePattern = regexp.MustCompile(`(?i)weather in ([a-z\s]+)`)
)

// ExtractLocation picks the location out of a free-text question.
//
// Tokens are scanned in a fixed order: the word after the first preposition
// ("in", "at", "for") wins; otherwise the last word outside the stoplist;
// otherwise the last word. The result is capitalized. Blank input yields "".
func ExtractLocation(text string) string {
	tokens := strings.Fields(strings.ToLower(common.StripPunctuation(text)))
	if len(tokens) == 0 {
		return ""
	}

	for i, tok := range tokens {
		if common.OneOf(tok, prepositions...) && i+1 < len(tokens) {
			return common.Capitalize(tokens[i+1])
		}
	}

	candidate := ""
	for _, tok := range tokens {
		if common.OneOf(tok, stopwords...) {
			continue
		}
		candidate = tok
	}
	if candidate == "" {
		candidate = tokens[len(tokens)-1]
	}
	return common.Capitalize(candidate)
}

// VoiceQuery turns a speech transcript into a location query. "weather in <city>"
// yields the city; anything else is used as is.
func VoiceQuery(transcript string) string {
	if m := voicePattern.FindStringSubmatch(transcript); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			return city
		}
	}
	return strings.TrimSpace(transcript)
}
