// Package moderation masks banned words in message content before it
// is persisted. Matching is done on a normalized view of the text
// (lowercased, separators stripped, common digit substitutions undone)
// while the mask is applied to the original runes.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type ContentFilter struct {
	matcher  *goahocorasick.Machine
	maskRune rune
}

// NewContentFilter builds the Aho-Corasick automaton over the
// normalized banned words. An empty word list yields a no-op filter.
func NewContentFilter(bannedWords []string, maskRune rune) (*ContentFilter, error) {
	if len(bannedWords) == 0 {
		return &ContentFilter{maskRune: maskRune}, nil
	}
	patterns := make([][]rune, len(bannedWords))
	for i, word := range bannedWords {
		norm, _ := normalize([]rune(word))
		patterns[i] = norm
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &ContentFilter{matcher: machine, maskRune: maskRune}, nil
}

// Mask replaces every banned pattern occurrence with the mask rune,
// preserving length and spacing of the original text.
func (f *ContentFilter) Mask(content string) string {
	if f.matcher == nil {
		return content
	}
	runes := []rune(content)
	norm, origIdx := normalize(runes)
	if len(norm) == 0 {
		return content
	}

	for _, hit := range f.matcher.MultiPatternSearch(norm, false) {
		start := hit.Pos
		end := start + len(hit.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = f.maskRune
		}
	}
	return string(runes)
}

// normalize lowercases, folds digit/symbol substitutions back to
// letters, and drops separators. origIdx maps each normalized rune back
// to its position in the input.
func normalize(input []rune) (norm []rune, origIdx []int) {
	for i, r := range input {
		switch r {
		case '4', '@':
			r = 'a'
		case '3':
			r = 'e'
		case '1', '!', '|':
			r = 'i'
		case '0':
			r = 'o'
		case '5', '$':
			r = 's'
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}
