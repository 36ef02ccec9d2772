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

func TestKeyerAcronymExpansion(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Massachusetts Institute of Technology", schema.TypeUniversity, 100)
	trie.Insert("Harvard University", schema.TypeUniversity, 90)
	keyer := NewKeyerFromTrie(trie)

	short := keyer.Canonical("MIT")
	long := keyer.Canonical("Massachusetts Institute of Technology")
	if short != long {
		t.Errorf("acronym and full name diverge: %q vs %q", short, long)
	}
	if long != "massachusetts institute of technology" {
		t.Errorf("canonical = %q", long)
	}
}

func TestKeyerAmbiguousAcronymDropped(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Great Western University", schema.TypeUniversity, 10)
	trie.Insert("Global Wellness Union", schema.TypeGeneral, 10)
	keyer := NewKeyerFromTrie(trie)

	// Both expand "gwu"; the acronym must stay unexpanded.
	if got := keyer.Canonical("gwu"); got != "gwu" {
		t.Errorf("ambiguous acronym expanded to %q", got)
	}
}

func TestKeyerCanonicalIdempotent(t *testing.T) {
	trie := NewTrie()
	trie.Insert("Massachusetts Institute of Technology", schema.TypeUniversity, 100)
	keyer := NewKeyerFromTrie(trie)

	once := keyer.Canonical("M.I.T.")
	if twice := keyer.Canonical(once); twice != once {
		t.Errorf("Canonical not idempotent: %q != %q", once, twice)
	}
}

func TestFingerprintOptions(t *testing.T) {
	if got := FingerprintOptions("", "", ""); got != "none" {
		t.Errorf("empty options fingerprint = %q, want none", got)
	}
	a := FingerprintOptions("boston", "", "")
	b := FingerprintOptions("", "boston", "")
	if a == b {
		t.Error("fingerprint must be position-sensitive")
	}
	if a != FingerprintOptions("boston", "", "") {
		t.Error("fingerprint must be deterministic")
	}
}

func TestKeyString(t *testing.T) {
	trie := NewTrie()
	keyer := NewKeyerFromTrie(trie)
	key := keyer.Key("Harvard University", schema.TypeUniversity, "")
	if key.String() != "harvard university|university|none" {
		t.Errorf("key = %q", key.String())
	}
}
