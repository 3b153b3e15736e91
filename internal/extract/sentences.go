package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// dehyphenRe matches hyphenation artifacts that line wrapping leaves in
// extracted prose, e.g. "Fer- tigkeit". A leading "- " at the start of a
// sentence is left alone.
var dehyphenRe = regexp.MustCompile(`(\S)- `)

// Dehyphenate removes mid-word hyphenation artifacts from text.
func Dehyphenate(text string) string {
	return dehyphenRe.ReplaceAllString(text, "$1")
}

// SplitSentences splits prose into sentences at '.', '!' or '?' followed
// by whitespace, keeping common abbreviations ("z.B.", "Dr.") and
// numbered items ("3.") intact. Each sentence is trimmed and
// dehyphenated; empty segments are dropped.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var sentences []string
	var current []rune

	flush := func() {
		s := strings.TrimSpace(string(current))
		if s != "" {
			sentences = append(sentences, Dehyphenate(s))
		}
		current = current[:0]
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current = append(current, r)

		if !isSentenceEnd(r) {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if isAbbreviation(runes, i) {
			continue
		}

		flush()
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
	}
	flush()

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isAbbreviation reports whether the '.' at position i ends an
// abbreviation or a number rather than a sentence.
func isAbbreviation(runes []rune, i int) bool {
	if runes[i] != '.' {
		return false
	}
	// Numbered item: "3."
	if i >= 1 && unicode.IsDigit(runes[i-1]) {
		return true
	}
	// Title-style abbreviation: "Dr.", "Mr."
	if i >= 2 && unicode.IsUpper(runes[i-2]) && unicode.IsLower(runes[i-1]) {
		return true
	}
	// Dotted abbreviation: "z.B.", "e.g."
	if i >= 3 && isWordRune(runes[i-3]) && runes[i-2] == '.' && isWordRune(runes[i-1]) {
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
