package interpolation

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Marker is the token left in place of each markup segment. The machine
// translator passes bare digits through untouched, which braces are not.
const Marker = "010"

// markupPattern matches colour and format codes such as {colour_start|red}.
var markupPattern = regexp.MustCompile(`\{.*?\}`)

// Extract replaces every {...} segment with the marker and returns the masked
// string along with the removed segments in order of appearance.
func Extract(text string) (string, []string) {
	placeholders := markupPattern.FindAllString(text, -1)
	if len(placeholders) == 0 {
		return text, nil
	}

	log.Info().Str("text", text).Int("count", len(placeholders)).Msg("Markup found, masking before translation")

	return markupPattern.ReplaceAllLiteralString(text, " "+Marker+" "), placeholders
}

// Count returns the number of markup segments in text.
func Count(text string) int {
	return len(markupPattern.FindAllStringIndex(text, -1))
}

// Reinsert replaces the n-th marker in masked with the n-th placeholder.
// Surplus markers are left in place and surplus placeholders are dropped.
func Reinsert(masked string, placeholders []string) string {
	if len(placeholders) == 0 {
		return masked
	}

	var sb strings.Builder
	rest := masked
	used := 0
	for used < len(placeholders) {
		idx := strings.Index(rest, Marker)
		if idx < 0 {
			break
		}
		sb.WriteString(rest[:idx])
		sb.WriteString(placeholders[used])
		rest = rest[idx+len(Marker):]
		used++
	}
	sb.WriteString(rest)

	if used != len(placeholders) || strings.Contains(rest, Marker) {
		log.Debug().
			Int("placeholders", len(placeholders)).
			Int("reinserted", used).
			Str("text", masked).
			Msg("Marker count does not match placeholders")
	}

	return sb.String()
}
