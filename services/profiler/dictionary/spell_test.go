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
	"testing"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

func buildCorpus(t *testing.T, entries []Entry) (*Trie, *SymSpell) {
	t.Helper()
	trie := NewTrie()
	sym := NewSymSpell(2)
	NewLoader(trie, sym, nil).Apply(entries)
	return trie, sym
}

func TestCorrectSingleTypo(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 10},
		{Name: "Harvest", Frequency: 1},
	})
	corrector := NewCorrector(trie, sym, 0)

	got, err := corrector.Correct("harvrd university", 5)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	best := got[0]
	if best.Phrase != "Harvard University" {
		t.Errorf("phrase = %q, want Harvard University", best.Phrase)
	}
	if len(best.Corrections) != 1 {
		t.Fatalf("corrections = %+v, want exactly one", best.Corrections)
	}
	c := best.Corrections[0]
	if c.Position != 0 || c.Original != "harvrd" || c.Corrected != "harvard" || c.Distance != 1 {
		t.Errorf("correction = %+v, want pos 0 harvrd→harvard dist 1", c)
	}
}

func TestCorrectNeverEscapesTrie(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 10},
		{Name: "Howard University", Type: schema.TypeUniversity, Frequency: 8},
		{Name: "Harvard Medical School", Type: schema.TypeUniversity, Frequency: 6},
		{Name: "First National Bank", Type: schema.TypeBank, Frequency: 4},
		{Name: "General Hospital", Type: schema.TypeHospital, Frequency: 3},
	})
	corrector := NewCorrector(trie, sym, 0)

	queries := []string{
		"harvrd university",
		"hovard universty",
		"frst national bnk",
		"general hspital",
		"harvard medcal school",
		"completely unrelated words",
		"h u",
	}
	for _, q := range queries {
		got, err := corrector.Correct(q, 10)
		if err != nil {
			if errors.Is(err, ErrNoSuggestion) {
				continue
			}
			t.Fatalf("Correct(%q): %v", q, err)
		}
		for _, corr := range got {
			if !trie.Contains(corr.Phrase) {
				t.Errorf("query %q emitted out-of-vocabulary phrase %q", q, corr.Phrase)
			}
		}
	}
}

func TestCorrectOrdering(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Stanford University", Type: schema.TypeUniversity, Frequency: 90},
		{Name: "Samford University", Type: schema.TypeUniversity, Frequency: 10},
	})
	corrector := NewCorrector(trie, sym, 0)

	// "stanfrd" is distance 1 from stanford, distance 2 from samford.
	got, err := corrector.Correct("stanfrd university", 5)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(got) < 1 || got[0].Phrase != "Stanford University" {
		t.Fatalf("first suggestion = %+v, want Stanford University", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("distance ordering violated at %d", i)
		}
	}
}

func TestCorrectInstitutionTermFallbackOnLastWord(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 10},
	})
	corrector := NewCorrector(trie, sym, 0)

	got, err := corrector.Correct("harvard uni", 5)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(got) == 0 || got[0].Phrase != "Harvard University" {
		t.Errorf("got %+v, want Harvard University via institution-term union", got)
	}
}

func TestCorrectNoSuggestion(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 10},
	})
	corrector := NewCorrector(trie, sym, 0)

	if _, err := corrector.Correct("zzzzzz qqqqqq", 5); !errors.Is(err, ErrNoSuggestion) {
		t.Errorf("err = %v, want ErrNoSuggestion", err)
	}
	if _, err := corrector.Correct("   ", 5); !errors.Is(err, ErrNoSuggestion) {
		t.Errorf("empty query err = %v, want ErrNoSuggestion", err)
	}
}

func TestSymSpellLookup(t *testing.T) {
	sym := NewSymSpell(2)
	sym.Add("harvard", 10)
	sym.Add("harvest", 1)

	got := sym.Lookup("harvrd")
	if len(got) == 0 {
		t.Fatal("no candidates for harvrd")
	}
	if got[0].Word != "harvard" || got[0].Distance != 1 {
		t.Errorf("best = %+v, want harvard at distance 1", got[0])
	}
	for _, c := range got {
		if c.Distance > 2 {
			t.Errorf("candidate %q beyond max distance: %d", c.Word, c.Distance)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"harvrd", "harvard", 1},
		{"kitten", "sitting", 3},
		{"université", "universite", 1},
	}
	for _, tc := range cases {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q,%q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Levenshtein(tc.b, tc.a); got != tc.want {
			t.Errorf("Levenshtein(%q,%q) = %d, want %d (symmetry)", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestPruneToCapBoundsProduct(t *testing.T) {
	wide := make([]positionCandidate, 50)
	for i := range wide {
		wide[i] = positionCandidate{word: string(rune('a' + i%26)), distance: i}
	}
	sets := [][]positionCandidate{
		append([]positionCandidate(nil), wide...),
		append([]positionCandidate(nil), wide...),
		append([]positionCandidate(nil), wide...),
	}
	pruneToCap(sets, DefaultProductCap)

	product := 1
	for _, set := range sets {
		if len(set) == 0 {
			t.Fatal("pruning emptied a candidate set")
		}
		product *= len(set)
	}
	if product > DefaultProductCap {
		t.Errorf("product = %d, want <= %d", product, DefaultProductCap)
	}
}
