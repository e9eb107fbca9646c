// Package moderation masks censored words in message text before it is
// persisted. Matching runs over a normalized view of the input (lowercased,
// leet speak folded, punctuation and spacing stripped) so obfuscated
// spellings are still caught, while masking is applied to the original
// runes to preserve spacing.
package moderation

import (
	"log/slog"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	patterns    int
	replacement rune
	log         *slog.Logger
}

// mapping ties each normalized rune back to its index in the original text.
type mapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. An empty list yields a moderator that censors nothing.
func NewModerator(censoredWords []string, replacement rune, log *slog.Logger) (Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if norm := normalize([]rune(word)); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}

	m := new(goahocorasick.Machine)
	if len(patterns) > 0 {
		if err := m.Build(patterns); err != nil {
			return Moderator{}, err
		}
	}
	return Moderator{matcher: m, patterns: len(patterns), replacement: replacement, log: log}, nil
}

// Censor returns text with every censored span masked, plus the matched
// words. When a match is made, the detected language of the message is
// logged for the audit trail.
func (m *Moderator) Censor(original string) (string, []string) {
	if !m.Enabled() {
		return original, nil
	}

	orig := []rune(original)
	view := project(orig)
	if len(view.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(view.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	var found []string
	for _, span := range spans {
		found = append(found, string(span.Word))

		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(view.origIdx) {
			continue
		}
		for i := view.origIdx[start]; i <= view.origIdx[end-1]; i++ {
			orig[i] = m.replacement
		}
	}

	info := whatlanggo.Detect(original)
	m.log.Warn("censored message content",
		"words", len(found),
		"lang", info.Lang.Iso6391())

	return string(orig), found
}

// Enabled reports whether the moderator has any patterns to match.
func (m *Moderator) Enabled() bool {
	return m.patterns > 0
}

// project builds the normalized search view of the input while tracking
// original rune positions for masking.
func project(orig []rune) mapping {
	view := mapping{
		normalized: make([]rune, 0, len(orig)),
		origIdx:    make([]int, 0, len(orig)),
	}
	for i, r := range orig {
		folded := foldLeet(r)
		if isNoise(folded) {
			continue
		}
		view.normalized = append(view.normalized, unicode.ToLower(folded))
		view.origIdx = append(view.origIdx, i)
	}
	return view
}

func normalize(input []rune) []rune {
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

// foldLeet maps common leet speak characters back to their standard
// alphabet counterparts.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
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

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
