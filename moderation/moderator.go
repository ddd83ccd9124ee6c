// Package moderation censors configured words in chat messages before they
// are persisted. Matching runs over a normalized view of the text (lowered,
// leet speak folded, punctuation and spacing stripped) while the replacement
// is applied to the original runes, so spacing and surrounding text survive.
package moderation

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// Review is the outcome of moderating one message.
type Review struct {
	Sanitized     string
	CensoredWords []string
	Lang          string
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. An empty list yields a pass-through moderator.
func NewModerator(censoredWords []string, replacement rune) (*Moderator, error) {
	if len(censoredWords) == 0 {
		return &Moderator{replacement: replacement}, nil
	}

	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		normalized := normalizeRunes([]rune(word))
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}

	matcher := new(goahocorasick.Machine)
	if err := matcher.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: matcher, replacement: replacement}, nil
}

// Review censors forbidden words and detects the message language. The
// language code is informational only; it never changes the censoring.
func (m *Moderator) Review(original string) Review {
	info := whatlanggo.Detect(original)

	sanitized, words := m.censor(original)
	return Review{
		Sanitized:     sanitized,
		CensoredWords: words,
		Lang:          info.Lang.Iso6391(),
	}
}

func (m *Moderator) censor(original string) (string, []string) {
	if m.matcher == nil {
		return original, nil
	}

	normalized, origIdx := normalize(original)
	if len(normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		// Map the match back to the original rune range, noise included.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes), found
}

// normalize lowers, folds leet speak and drops noise runes, keeping a map
// from normalized positions back to original rune indexes.
func normalize(input string) ([]rune, []int) {
	origRunes := []rune(input)
	normalized := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		folded := foldLeet(r)
		if isNoise(folded) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(folded))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		folded := foldLeet(r)
		if isNoise(folded) {
			continue
		}
		out = append(out, unicode.ToLower(folded))
	}
	return out
}

// foldLeet maps common leet speak characters back to their alphabet
// counterparts so "b4dger" matches "badger".
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
