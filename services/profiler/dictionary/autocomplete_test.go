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
	"testing"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

func newAutocompleteFixture(t *testing.T) *Autocomplete {
	t.Helper()
	trie, sym := buildCorpus(t, []Entry{
		{Name: "Massachusetts Institute of Technology", Type: schema.TypeUniversity, Frequency: 100},
		{Name: "University of Massachusetts", Type: schema.TypeUniversity, Frequency: 60},
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 90},
	})
	return NewAutocomplete(trie, NewCorrector(trie, sym, 0), nil, nil)
}

func TestAutocompleteDirectPrefix(t *testing.T) {
	ac := newAutocompleteFixture(t)
	got := ac.Suggest("mass", 5)
	if len(got) != 1 || got[0].Name != "Massachusetts Institute of Technology" {
		t.Fatalf("got %+v, want MIT only", got)
	}
	if got[0].Provenance != ProvenanceAutocomplete {
		t.Errorf("provenance = %q, want %q", got[0].Provenance, ProvenanceAutocomplete)
	}
}

func TestAutocompleteVariationOnlyMatch(t *testing.T) {
	trie, sym := buildCorpus(t, []Entry{
		{Name: "University of Massachusetts", Type: schema.TypeUniversity, Frequency: 60},
	})
	ac := NewAutocomplete(trie, NewCorrector(trie, sym, 0), nil, nil)

	got := ac.Suggest("mass", 5)
	if len(got) != 1 || got[0].Name != "University of Massachusetts" {
		t.Fatalf("got %+v, want University of Massachusetts via variation", got)
	}
	if got[0].Provenance != ProvenanceAutocomplete {
		t.Errorf("provenance = %q", got[0].Provenance)
	}
}

func TestAutocompleteSpellFallback(t *testing.T) {
	ac := newAutocompleteFixture(t)
	got := ac.Suggest("harvrd university", 5)
	if len(got) == 0 {
		t.Fatal("no suggestions from spell fallback")
	}
	if got[0].Name != "Harvard University" {
		t.Errorf("got %+v, want Harvard University", got)
	}
	if got[0].Provenance != ProvenanceSpellCorrection {
		t.Errorf("provenance = %q, want %q", got[0].Provenance, ProvenanceSpellCorrection)
	}
}

func TestAutocompleteShortInputNoFallback(t *testing.T) {
	ac := newAutocompleteFixture(t)
	if got := ac.Suggest("zq", 5); len(got) != 0 {
		t.Errorf("two-char garbage should return nothing, got %+v", got)
	}
	if got := ac.Suggest("", 5); got != nil {
		t.Errorf("empty prefix should return nil, got %+v", got)
	}
}
