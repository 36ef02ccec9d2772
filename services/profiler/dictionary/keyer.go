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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// =============================================================================
// Keyer — normalized cache-key derivation
// =============================================================================
//
// A Key collapses distinct spellings of the same request onto one cache
// identity: "MIT" and "Massachusetts Institute of Technology" must hit the
// same search-cache entry. The abbreviation table is not hand-curated: it
// is derived from the loaded trie at startup, an acronym is only valid when
// exactly one trie entry expands it.

// Key is the canonical identity of a profiling request.
type Key struct {
	Canonical   string
	Type        schema.InstitutionType
	OptionsHash string
}

// String renders the key in the stable pipe-joined form used by caches.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Canonical, k.Type, k.OptionsHash)
}

// FingerprintOptions hashes recognized search-refinement option values into
// the short option fingerprint carried by a Key. Pass the values in a fixed
// order; an all-empty set fingerprints to "none".
func FingerprintOptions(values ...string) string {
	empty := true
	h := sha256.New()
	for _, v := range values {
		if v != "" {
			empty = false
		}
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	if empty {
		return "none"
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Keyer derives Keys using a trie-built abbreviation table.
//
// Thread Safety: immutable after construction.
type Keyer struct {
	abbreviations map[string]string // acronym → normalized expansion
}

// NewKeyerFromTrie scans the trie and records every acronym that expands to
// exactly one entry. Acronyms that collide with a real trie entry (some
// short names look like acronyms) are skipped.
func NewKeyerFromTrie(t *Trie) *Keyer {
	expansions := make(map[string]string)
	ambiguous := make(map[string]struct{})

	t.Walk(func(normalized string, _ Metadata) {
		acronym := Acronym(normalized)
		if acronym == "" || len(acronym) < 2 {
			return
		}
		if _, bad := ambiguous[acronym]; bad {
			return
		}
		if prev, exists := expansions[acronym]; exists && prev != normalized {
			delete(expansions, acronym)
			ambiguous[acronym] = struct{}{}
			return
		}
		expansions[acronym] = normalized
	})

	for acronym := range expansions {
		if t.Contains(acronym) {
			delete(expansions, acronym)
		}
	}
	return &Keyer{abbreviations: expansions}
}

// Expansions returns the size of the abbreviation table, for startup logs.
func (ky *Keyer) Expansions() int { return len(ky.abbreviations) }

// Canonical normalizes a name and expands it when the whole normalized form
// is a known acronym. Dotted acronyms normalize to spaced single letters
// ("M.I.T." → "m i t"), so those are squashed and retried. Idempotent:
// expansions are normalized full names, which are never acronyms themselves.
func (ky *Keyer) Canonical(name string) string {
	normalized := Normalize(name)
	if expansion, ok := ky.abbreviations[normalized]; ok {
		return expansion
	}
	tokens := strings.Fields(normalized)
	if len(tokens) >= 2 {
		allSingle := true
		for _, tok := range tokens {
			if len([]rune(tok)) != 1 {
				allSingle = false
				break
			}
		}
		if allSingle {
			if expansion, ok := ky.abbreviations[strings.Join(tokens, "")]; ok {
				return expansion
			}
		}
	}
	return normalized
}

// Key assembles the cache identity for a request.
func (ky *Keyer) Key(name string, typ schema.InstitutionType, optionsHash string) Key {
	if optionsHash == "" {
		optionsHash = "none"
	}
	return Key{Canonical: ky.Canonical(name), Type: typ, OptionsHash: optionsHash}
}
