package telegram

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Telegram's limit for a text message, in UTF-16 units.
// Counting runes stays under it for all but astral-plane heavy text, which
// the halved budget below covers.
const maxMessageLength = 4096

// splitMessage cuts text into pieces of at most limit/2 runes, preferring
// line breaks. Joining the pieces yields text unchanged.
func splitMessage(text string, limit int) []string {
	budget := limit / 2
	if budget < 1 {
		budget = 1
	}
	if text == "" {
		return []string{""}
	}

	var chunks []string
	for utf8.RuneCountInString(text) > budget {
		cut := byteOffset(text, budget)
		if nl := strings.LastIndex(text[:cut], "\n"); nl > 0 {
			cut = nl + 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte index just after the first n runes of s.
func byteOffset(s string, n int) int {
	i := 0
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}
