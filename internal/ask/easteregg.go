package ask

import (
	"strings"
	"unicode"
)

const (
	easterEggAnswer = "42"
	easterEggSource = "The Hitchhiker's Guide to the Galaxy"
)

// isEasterEgg reports whether the prompt asks about the meaning of life.
// The match is deliberately fuzzy: the prompt is lowercased, stripped to
// alphanumerics and spaces, and checked for substring containment of
// "what", "meaning", and "life" in any order.
func isEasterEgg(prompt string) bool {
	cleaned := cleanPrompt(prompt)
	return strings.Contains(cleaned, "what") &&
		strings.Contains(cleaned, "meaning") &&
		strings.Contains(cleaned, "life")
}

func cleanPrompt(prompt string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(prompt) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
