package layout

import (
	"fmt"
	"regexp"
)

// KeywordMatcher matches fragment text against a configured keyword
// pattern. Plain patterns match as case-insensitive substrings; regex
// patterns are compiled with case folding enabled.
type KeywordMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// NewKeywordMatcher compiles a keyword pattern. When isRegex is false
// the pattern is treated as a literal substring.
func NewKeywordMatcher(pattern string, isRegex bool) (*KeywordMatcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("keyword pattern cannot be empty")
	}

	expr := pattern
	if !isRegex {
		expr = regexp.QuoteMeta(pattern)
	}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid keyword pattern %q: %w", pattern, err)
	}

	return &KeywordMatcher{pattern: pattern, re: re}, nil
}

// MustKeywordMatcher is like NewKeywordMatcher but panics on an invalid
// pattern. Intended for built-in field sets.
func MustKeywordMatcher(pattern string, isRegex bool) *KeywordMatcher {
	m, err := NewKeywordMatcher(pattern, isRegex)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the original pattern string.
func (m *KeywordMatcher) Pattern() string {
	return m.pattern
}

// Match reports whether the given fragment text contains the keyword.
func (m *KeywordMatcher) Match(text string) bool {
	return m.re.MatchString(text)
}

// MatchingFragments returns all fragments on the page whose text matches
// the keyword, in reading order. An empty result is a normal condition:
// a field simply does not appear on every page.
func MatchingFragments(page Page, matcher *KeywordMatcher) []Fragment {
	var matches []Fragment
	for _, frag := range page.Fragments {
		if matcher.Match(frag.Text) {
			matches = append(matches, frag)
		}
	}
	SortReadingOrder(matches)
	return matches
}

// LocateKeyword returns the first fragment in reading order matching the
// keyword. Module tables place each label once, so later duplicates on
// the same page are ignored.
func LocateKeyword(page Page, matcher *KeywordMatcher) (Fragment, bool) {
	matches := MatchingFragments(page, matcher)
	if len(matches) == 0 {
		return Fragment{}, false
	}
	return matches[0], true
}
