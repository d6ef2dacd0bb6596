package discord

import (
	"strings"
	"unicode"
)

// parseCommand splits a prefixed message into a lower-cased command name and
// its arguments. ok is false when content does not start with prefix or names
// no command.
func parseCommand(prefix, content string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	tokens := tokenize(strings.TrimPrefix(content, prefix))
	if len(tokens) == 0 || strings.HasPrefix(content[len(prefix):], " ") {
		return "", nil, false
	}

	return strings.ToLower(tokens[0]), tokens[1:], true
}

// tokenize splits on whitespace. Double quotes group words into one token and
// are removed; an unterminated quote runs to the end of the input.
func tokenize(input string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		pending bool
	)

	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}

	for _, r := range input {
		switch {
		case r == '"':
			if quoted {
				quoted = false
				flush()
				continue
			}
			flush()
			quoted = true
			pending = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()

	return tokens
}

// stripMention turns <@id>, <@!id> and <#id> into id.
func stripMention(token string) string {
	return strings.Trim(token, "<@!#>")
}
