// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dictionary

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoSuggestion reports that no trie-validated correction exists for a
// query. Callers on the suggestion path treat it as an empty result, not a
// failure.
var ErrNoSuggestion = errors.New("dictionary: no trie-validated suggestion")

// DefaultProductCap bounds the cartesian product of per-word candidate
// sets enumerated for one query.
const DefaultProductCap = 128

// institutionTerms is the extra candidate set unioned into the last word
// position. A user typing "harvard uni" gets "harvard university" considered
// even though "uni" alone generates no dictionary candidates.
var institutionTerms = []string{
	"university", "college", "institute", "school", "academy",
	"hospital", "clinic", "center",
	"bank", "union",
}

// WordCorrection records one per-word substitution inside a phrase.
type WordCorrection struct {
	Position  int    `json:"position"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Distance  int    `json:"distance"`
}

// Correction is one validated whole-phrase suggestion.
type Correction struct {
	// Phrase is the institution's original casing from the trie.
	Phrase string `json:"phrase"`
	// Distance is the summed per-word edit distance.
	Distance int `json:"distance"`
	// Frequency is the trie ranking weight of the matched entry.
	Frequency   int              `json:"frequency"`
	Corrections []WordCorrection `json:"corrections,omitempty"`
}

// Corrector proposes whole-phrase spelling corrections for institution
// queries. Every emitted phrase is an existing trie entry; the corrector
// never invents names.
//
// Thread Safety: safe for concurrent use once the trie and symspell
// dictionary are loaded.
type Corrector struct {
	trie       *Trie
	sym        *SymSpell
	productCap int
}

// NewCorrector wires a corrector over a loaded trie and symspell
// dictionary. productCap <= 0 selects DefaultProductCap.
func NewCorrector(trie *Trie, sym *SymSpell, productCap int) *Corrector {
	if productCap <= 0 {
		productCap = DefaultProductCap
	}
	return &Corrector{trie: trie, sym: sym, productCap: productCap}
}

// positionCandidate is one candidate word for one query position.
type positionCandidate struct {
	word     string
	distance int
	freq     int
}

// Correct proposes up to limit corrections for query.
//
// Algorithm: per-word symspell candidates (the last position additionally
// considers common institution terms), a distance-pruned cartesian product
// bounded by the product cap, trie validation of every joined phrase, then
// ordering by summed distance ascending and trie frequency descending.
//
// Outputs:
//   - []Correction: validated suggestions, deduplicated on phrase.
//   - error: ErrNoSuggestion when the bounded product holds no trie entry.
func (c *Corrector) Correct(query string, limit int) ([]Correction, error) {
	if limit <= 0 {
		limit = 5
	}
	words := Tokens(query)
	if len(words) == 0 {
		return nil, ErrNoSuggestion
	}

	sets := make([][]positionCandidate, len(words))
	for i, word := range words {
		sets[i] = c.candidatesFor(word, i == len(words)-1)
	}
	pruneToCap(sets, c.productCap)

	found := make(map[string]Correction)
	tuple := make([]positionCandidate, len(words))
	c.enumerate(sets, 0, tuple, words, found)
	if len(found) == 0 {
		return nil, ErrNoSuggestion
	}

	out := make([]Correction, 0, len(found))
	for _, corr := range found {
		out = append(out, corr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// candidatesFor builds the candidate set for one query word. The word
// itself is always a candidate at distance 0, dictionary or not, so a
// correctly spelled rare word survives the product.
func (c *Corrector) candidatesFor(word string, last bool) []positionCandidate {
	seen := map[string]struct{}{word: {}}
	set := []positionCandidate{{word: word, distance: 0, freq: c.sym.words[word]}}

	for _, cand := range c.sym.Lookup(word) {
		if _, dup := seen[cand.Word]; dup {
			continue
		}
		seen[cand.Word] = struct{}{}
		set = append(set, positionCandidate{word: cand.Word, distance: cand.Distance, freq: cand.Frequency})
	}

	if last {
		for _, term := range institutionTerms {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			set = append(set, positionCandidate{word: term, distance: Levenshtein(word, term)})
		}
	}

	sort.Slice(set, func(i, j int) bool {
		if set[i].distance != set[j].distance {
			return set[i].distance < set[j].distance
		}
		if set[i].freq != set[j].freq {
			return set[i].freq > set[j].freq
		}
		return set[i].word < set[j].word
	})
	return set
}

// pruneToCap trims per-position candidate sets, largest first, until the
// product of set sizes fits the cap. Sets are distance-sorted so trimming
// drops the farthest candidates.
func pruneToCap(sets [][]positionCandidate, cap int) {
	for {
		product := 1
		largest := 0
		for i, set := range sets {
			product *= len(set)
			if len(set) > len(sets[largest]) {
				largest = i
			}
		}
		if product <= cap || len(sets[largest]) <= 1 {
			return
		}
		sets[largest] = sets[largest][:len(sets[largest])-1]
	}
}

func (c *Corrector) enumerate(sets [][]positionCandidate, pos int, tuple []positionCandidate, words []string, found map[string]Correction) {
	if pos == len(sets) {
		c.validate(tuple, words, found)
		return
	}
	for _, cand := range sets[pos] {
		tuple[pos] = cand
		c.enumerate(sets, pos+1, tuple, words, found)
	}
}

// validate joins one tuple, checks the trie, and records a Correction on
// match. An existing entry for the same phrase is kept when it is closer.
func (c *Corrector) validate(tuple []positionCandidate, words []string, found map[string]Correction) {
	parts := make([]string, len(tuple))
	total := 0
	for i, cand := range tuple {
		parts[i] = cand.word
		total += cand.distance
	}
	phrase := strings.Join(parts, " ")

	meta, ok := c.trie.Lookup(phrase)
	if !ok {
		return
	}
	key := Normalize(phrase)
	if prev, exists := found[key]; exists && prev.Distance <= total {
		return
	}

	var corrections []WordCorrection
	for i, cand := range tuple {
		if cand.word != words[i] {
			corrections = append(corrections, WordCorrection{
				Position:  i,
				Original:  words[i],
				Corrected: cand.word,
				Distance:  cand.distance,
			})
		}
	}
	found[key] = Correction{
		Phrase:      meta.Original,
		Distance:    total,
		Frequency:   meta.Frequency,
		Corrections: corrections,
	}
}
