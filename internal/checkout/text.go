package checkout

import (
	"strings"
	"unicode"
)

var (
	affirmativeWords = map[string]bool{
		"yes": true, "yeah": true, "yep": true, "correct": true, "right": true,
		"confirm": true, "confirmed": true, "ok": true, "okay": true, "sure": true,
	}
	negativeWords = map[string]bool{
		"no": true, "not": true, "nope": true, "wrong": true, "incorrect": true,
	}
	editWords = map[string]bool{
		"edit": true, "change": true, "modify": true, "reenter": true, "re-enter": true,
		"update": true, "fix": true,
	}
)

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

func containsAny(text string, set map[string]bool) bool {
	for _, w := range words(text) {
		if set[w] {
			return true
		}
	}
	return false
}

// isAffirmative reports whether text confirms, e.g. "yes" or "that's correct".
// Any negation wins over an affirmative word.
func isAffirmative(text string) bool {
	return !containsAny(text, negativeWords) && containsAny(text, affirmativeWords)
}

// wantsEdit reports whether text asks to re-enter details.
func wantsEdit(text string) bool {
	return containsAny(text, editWords) || containsAny(text, negativeWords)
}
