package agent

import "strings"

// jsonEscapeFixer replaces the small fixed set of invalid escape sequences
// language models commonly emit (the JSON standard only allows \" \\ \/ \b
// \f \n \r \t and \uXXXX) with their literal characters.
var jsonEscapeFixer = strings.NewReplacer(
	`\'`, `'`,
	"\\`", "`",
	`\&`, `&`,
	`\%`, `%`,
	`\#`, `#`,
	`\@`, `@`,
	`\$`, `$`,
)

// FixJSONEscapes repairs invalid escape sequences before parsing is
// attempted, so a single escaped apostrophe does not discard an otherwise
// valid model response.
func FixJSONEscapes(s string) string {
	return jsonEscapeFixer.Replace(s)
}

// ExtractJSON pulls the JSON payload out of model output: it strips fenced
// code blocks (```json or bare ```), or falls back to the first
// brace-balanced object in the text. When nothing matches, the stripped
// input is returned unchanged and left to the JSON parser to reject.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		if inner, ok := insideFence(text[len("```json"):]); ok {
			return inner
		}
	} else if strings.HasPrefix(text, "```") {
		if inner, ok := insideFence(text[len("```"):]); ok {
			return inner
		}
	}

	if start := strings.IndexByte(text, '{'); start != -1 {
		depth := 0

		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return strings.TrimSpace(text[start : i+1])
				}
			}
		}
	}

	return text
}

func insideFence(rest string) (string, bool) {
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}

	return strings.TrimSpace(rest[:end]), true
}
