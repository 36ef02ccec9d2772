// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dictionary holds the institution name index: the prefix trie, the
// symspell edit-distance dictionary, the smart spell corrector that only
// emits trie-validated phrases, and the normalization rules they all share.
// The index is built once at startup from CSV corpora and is immutable
// afterwards, so every structure here supports free concurrent reads.
package dictionary

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining diacritical marks after canonical
// decomposition, so "Université" normalizes like "Universite".
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and removes diacritics. Transform errors cannot occur for
// valid UTF-8; invalid bytes pass through unchanged.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransform, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Normalize produces the canonical lookup form used for trie keys, cache
// keys, and spell-corrector validation: lowercase, diacritics folded,
// punctuation replaced by spaces, whitespace collapsed. Idempotent.
func Normalize(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a string into its normalized tokens.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// corporateSuffixes are trailing designators stripped from corpus rows
// before insertion. FDIC and registry exports carry these on most names.
var corporateSuffixes = []string{
	"national association",
	"n.a.",
	"na",
	"inc.",
	"inc",
	"incorporated",
	"llc",
	"l.l.c.",
	"corp.",
	"corp",
	"corporation",
	"co.",
	"company",
	"ltd.",
	"ltd",
	"limited",
	"plc",
}

// CleanName prepares a raw corpus name for insertion: text after the first
// comma is dropped ("Bank of Example, National Association" keeps only the
// name proper), then trailing corporate designators are stripped.
func CleanName(name string) string {
	if idx := strings.IndexByte(name, ','); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)

	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(name)
		for _, suffix := range corporateSuffixes {
			if strings.HasSuffix(lower, " "+suffix) {
				name = strings.TrimSpace(name[:len(name)-len(suffix)-1])
				changed = true
				break
			}
		}
	}
	return name
}

// acronymStopwords are skipped when deriving an acronym from a multi-word
// name ("Massachusetts Institute of Technology" → "mit").
var acronymStopwords = map[string]struct{}{
	"of": {}, "the": {}, "and": {}, "for": {}, "in": {}, "at": {},
}

// Acronym derives the initial-letter acronym of a normalized name, skipping
// stopwords. Returns "" when the name has fewer than two contributing tokens.
func Acronym(normalized string) string {
	var b strings.Builder
	contributing := 0
	for _, tok := range strings.Fields(normalized) {
		if _, skip := acronymStopwords[tok]; skip {
			continue
		}
		for _, r := range tok {
			b.WriteRune(r)
			break
		}
		contributing++
	}
	if contributing < 2 {
		return ""
	}
	return b.String()
}
