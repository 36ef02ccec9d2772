// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache implements the file-backed similarity caches used by the
// search, crawl, and extract phases: one JSON file per entry, TTL-based
// expiry, quarantine of corrupt files, and a fuzzy-match fallback that lets
// near-identical keys share an entry.
package cache

import (
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/dictionary"
)

// DefaultThreshold is the weighted similarity score at or above which two
// keys are considered the same query.
const DefaultThreshold = 0.85

// Metric blend weights.
const (
	levenshteinWeight = 0.3
	jaccardWeight     = 0.4
	sequenceWeight    = 0.3
)

// Similarity scores two canonical keys in [0, 1] as a weighted blend of
// character-level Levenshtein ratio, token-set Jaccard, and token-sequence
// ratio. Symmetric in its arguments.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ta, tb := strings.Fields(a), strings.Fields(b)
	return levenshteinWeight*levenshteinRatio(a, b) +
		jaccardWeight*tokenJaccard(ta, tb) +
		sequenceWeight*sequenceRatio(ta, tb)
}

// levenshteinRatio is 1 - distance/maxLen, on runes.
func levenshteinRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(dictionary.Levenshtein(a, b))/float64(longest)
}

// tokenJaccard is |A∩B| / |A∪B| over unique tokens.
func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		setB[tok] = struct{}{}
	}
	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// sequenceRatio is 2·LCS(a,b) / (len(a)+len(b)) over token sequences.
func sequenceRatio(a, b []string) float64 {
	if len(a)+len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	lcs := prev[len(b)]
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}
