package discord

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxMessageLen is Discord's limit on message content.
const maxMessageLen = 2000

// ParseCommand returns the arguments of content when it invokes prefix.
// "!grades" and "!grades waxman" match; "!gradesx" does not.
func ParseCommand(prefix, content string) (string, bool) {
	content = strings.TrimLeftFunc(content, unicode.IsSpace)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", false
	}

	rest := content[len(prefix):]
	if rest == "" {
		return "", true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// splitMessage breaks text into chunks Discord accepts, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
				cur.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
	}
	return chunks
}
