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

func TestTrieSuggestOrdering(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Massachusetts Institute of Technology", schema.TypeUniversity, 100)
	trie.Insert("Massachusetts General Hospital", schema.TypeHospital, 80)
	trie.Insert("Massey University", schema.TypeUniversity, 40)
	trie.Insert("Masseter Clinic", schema.TypeHospital, 5)

	got := trie.Suggest("mass", 3)
	want := []string{
		"Massachusetts Institute of Technology",
		"Massachusetts General Hospital",
		"Massey University",
	}
	if len(got) != len(want) {
		t.Fatalf("suggest returned %d results, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("result %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestTrieSuggestTieBreak(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Beta College", schema.TypeUniversity, 10)
	trie.Insert("Alpha College", schema.TypeUniversity, 10)
	trie.Insert("Gamma College", schema.TypeUniversity, 20)

	got := trie.Suggest("", 10)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	// Non-increasing frequency; lexicographic at equal frequency.
	for i := 1; i < len(got); i++ {
		if got[i].Frequency > got[i-1].Frequency {
			t.Errorf("frequency increased at %d: %d after %d", i, got[i].Frequency, got[i-1].Frequency)
		}
		if got[i].Frequency == got[i-1].Frequency && got[i].Normalized < got[i-1].Normalized {
			t.Errorf("tie not lexicographic at %d: %q after %q", i, got[i].Normalized, got[i-1].Normalized)
		}
	}
	if got[0].Name != "Gamma College" || got[1].Name != "Alpha College" {
		t.Errorf("order = [%s %s %s]", got[0].Name, got[1].Name, got[2].Name)
	}
}

func TestTrieInsertMergeSemantics(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Example Bank", "", 5)
	trie.Insert("example   bank", schema.TypeBank, 3)

	meta, ok := trie.Lookup("EXAMPLE BANK")
	if !ok {
		t.Fatal("entry not found after merge")
	}
	if meta.Frequency != 5 {
		t.Errorf("frequency = %d, want higher of the two inserts (5)", meta.Frequency)
	}
	if meta.Type != schema.TypeBank {
		t.Errorf("type = %q, want bank (empty earlier type yields)", meta.Type)
	}
	if trie.Len() != 1 {
		t.Errorf("Len = %d, want 1", trie.Len())
	}

	// A later non-empty type does not displace an existing one.
	trie.Insert("Example Bank", schema.TypeGeneral, 1)
	meta, _ = trie.Lookup("example bank")
	if meta.Type != schema.TypeBank {
		t.Errorf("type overwritten to %q, want bank kept", meta.Type)
	}
}

func TestTrieCasePreservation(t *testing.T) {
	trie := NewTrie()
	trie.Insert("École Polytechnique", schema.TypeUniversity, 10)

	if !trie.Contains("ecole polytechnique") {
		t.Fatal("folded lookup should match accented entry")
	}
	got := trie.Suggest("ecole", 1)
	if len(got) != 1 || got[0].Name != "École Polytechnique" {
		t.Errorf("suggest = %+v, want original casing preserved", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  Harvard   University ",
		"St. Mary's Hospital!",
		"Université de Montréal",
		"BANK-OF-EXAMPLE",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent on %q: %q != %q", in, once, twice)
		}
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"First Example Bank, National Association", "First Example Bank"},
		{"Widget Works Inc.", "Widget Works"},
		{"Acme Holdings LLC", "Acme Holdings"},
		{"Plain Name", "Plain Name"},
	}
	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
