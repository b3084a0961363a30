package taskrabbit

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var namePattern = regexp.MustCompile(`^[\p{L}\s.'\-]+$`)

// UI phrases that show up in the same elements as tasker names.
var nonNamePhrases = []string{
	"how i can help",
	"about me",
	"my experience",
	"what i do",
	"services",
	"skills",
	"description",
	"profile",
	"bio",
	"overview",
	"details",
	"info",
	"contact",
	"book now",
	"view profile",
	"hire me",
	"get quote",
	"message",
	"reviews",
	"rating",
	"stars",
	"feedback",
	"testimonial",
	"select",
	"continue",
	"read more",
	"elite",
}

// IsValidPersonName reports whether text looks like a tasker display
// name such as "Jane D." or "Mary-Ann O'Neil".
func IsValidPersonName(text string) bool {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n < 2 || n > 50 {
		return false
	}
	if strings.Contains(text, ":") || !namePattern.MatchString(text) {
		return false
	}

	alnum, letters := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if letters == 0 || alnum*2 < n {
		return false
	}

	// Phrases match on word boundaries so "Fabio R." survives "bio".
	words := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}), " ") + " "
	for _, p := range nonNamePhrases {
		if strings.Contains(words, " "+p+" ") {
			return false
		}
	}
	return true
}
