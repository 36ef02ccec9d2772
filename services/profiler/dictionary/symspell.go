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

import "sort"

// =============================================================================
// SymSpell — single-word candidate generation by deletion indexing
// =============================================================================
//
// Classic symmetric-delete scheme: every dictionary word is indexed under
// all of its deletions up to maxDistance; lookup generates the query word's
// deletions and intersects. Candidates are then verified with a true edit
// distance, so the index only has to be a superset filter.

// WordCandidate is one spelling candidate for a single word.
type WordCandidate struct {
	Word      string
	Distance  int
	Frequency int
}

// SymSpell is the single-word correction dictionary.
//
// Thread Safety: Add during startup loading only; Lookup is safe
// concurrently afterwards.
type SymSpell struct {
	maxDistance int
	words       map[string]int      // word → frequency
	deletes     map[string][]string // deletion form → words that produce it
}

// NewSymSpell builds an empty dictionary. maxDistance is clamped to [1, 2];
// deeper deletion indexes cost more than they help for institution words.
func NewSymSpell(maxDistance int) *SymSpell {
	if maxDistance < 1 {
		maxDistance = 1
	}
	if maxDistance > 2 {
		maxDistance = 2
	}
	return &SymSpell{
		maxDistance: maxDistance,
		words:       make(map[string]int),
		deletes:     make(map[string][]string),
	}
}

// MaxDistance returns the configured edit-distance bound.
func (s *SymSpell) MaxDistance() int { return s.maxDistance }

// Add indexes one dictionary word. Re-adding keeps the higher frequency.
// The word should already be normalized.
func (s *SymSpell) Add(word string, frequency int) {
	if word == "" {
		return
	}
	if frequency < 1 {
		frequency = 1
	}
	if old, exists := s.words[word]; exists {
		if frequency > old {
			s.words[word] = frequency
		}
		return
	}
	s.words[word] = frequency
	for del := range deletions(word, s.maxDistance) {
		s.deletes[del] = append(s.deletes[del], word)
	}
}

// Contains reports whether word is a dictionary word.
func (s *SymSpell) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Lookup returns dictionary words within the edit-distance bound of word,
// ordered by distance ascending, frequency descending, then word ascending.
// An exact dictionary word is always the first candidate (distance 0).
func (s *SymSpell) Lookup(word string) []WordCandidate {
	if word == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []WordCandidate

	consider := func(candidate string) {
		if _, done := seen[candidate]; done {
			return
		}
		seen[candidate] = struct{}{}
		dist := Levenshtein(word, candidate)
		if dist > s.maxDistance {
			return
		}
		out = append(out, WordCandidate{
			Word:      candidate,
			Distance:  dist,
			Frequency: s.words[candidate],
		})
	}

	if s.Contains(word) {
		consider(word)
	}
	for del := range deletions(word, s.maxDistance) {
		for _, candidate := range s.deletes[del] {
			consider(candidate)
		}
		// A deletion of the query may itself be a dictionary word.
		if s.Contains(del) {
			consider(del)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// deletions returns the set of strings reachable from word by removing up
// to depth characters, including word itself.
func deletions(word string, depth int) map[string]struct{} {
	set := map[string]struct{}{word: {}}
	frontier := []string{word}
	for d := 0; d < depth; d++ {
		var next []string
		for _, w := range frontier {
			runes := []rune(w)
			for i := range runes {
				del := string(runes[:i]) + string(runes[i+1:])
				if _, exists := set[del]; !exists {
					set[del] = struct{}{}
					next = append(next, del)
				}
			}
		}
		frontier = next
	}
	return set
}

// Levenshtein computes the edit distance between a and b with the standard
// two-row dynamic program, on runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
