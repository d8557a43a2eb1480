// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters NFKD leaves alone because they are distinct letters, not composed ones.
var distinctLetters = strings.NewReplacer(
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ß", "ss",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
)

var (
	dropPunctuation = strings.NewReplacer(
		"'", "", "’", "", "‘", "", "`", "", ":", "",
	)
	separators = strings.NewReplacer(
		".", " ", "_", " ", "-", " ", "+", " ",
	)
)

// FoldDiacritics strips combining marks and expands ligatures, so "Shōgun"
// becomes "Shogun" and "ﬁ" becomes "fi".
func FoldDiacritics(s string) string {
	s = distinctLetters.Replace(s)

	// transform.Chain keeps state, build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeTitle reduces a release or feed title to lowercase ASCII-ish words
// separated by single spaces. "Bob's.Burgers-S01" becomes "bobs burgers s01".
func NormalizeTitle(s string) string {
	s = FoldDiacritics(s)
	s = strings.ToLower(s)
	s = dropPunctuation.Replace(s)
	s = separators.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
