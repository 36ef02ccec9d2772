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
	"log/slog"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// Provenance tags on autocomplete entries.
const (
	ProvenanceAutocomplete    = "autocomplete"
	ProvenanceSpellCorrection = "spell_correction"
)

// DefaultPrefixVariations are institutional lead-ins tried when a bare
// prefix search returns nothing: "mass" also searches "university of mass",
// surfacing "University of Massachusetts".
var DefaultPrefixVariations = []string{
	"University of",
	"College of",
	"Institute of",
	"School of",
	"Bank of",
	"Credit Union of",
	"Hospital of",
	"Medical Center of",
	"Clinic of",
}

// spellFallbackMinChars is the single-token length at which a fruitless
// prefix search falls through to spell correction.
const spellFallbackMinChars = 4

// Candidate is one suggestion returned to the caller.
type Candidate struct {
	Name       string                 `json:"name"`
	Type       schema.InstitutionType `json:"type,omitempty"`
	Frequency  int                    `json:"frequency"`
	Provenance string                 `json:"provenance"`
}

// Autocomplete is the suggestion front end over the trie and the spell
// corrector.
//
// Thread Safety: safe for concurrent use after construction.
type Autocomplete struct {
	trie       *Trie
	corrector  *Corrector
	variations []string
	log        *slog.Logger
}

// NewAutocomplete wires the front end. variations == nil selects
// DefaultPrefixVariations.
func NewAutocomplete(trie *Trie, corrector *Corrector, variations []string, log *slog.Logger) *Autocomplete {
	if variations == nil {
		variations = DefaultPrefixVariations
	}
	if log == nil {
		log = slog.Default()
	}
	return &Autocomplete{trie: trie, corrector: corrector, variations: variations, log: log}
}

// Suggest resolves a user prefix to at most k entries.
//
// Resolution ladder: bare trie prefix search, then prefix variations, then
// spell correction when the input is long enough to correct. Each entry is
// tagged with its provenance.
func (a *Autocomplete) Suggest(prefix string, k int) []Candidate {
	if k <= 0 {
		k = 10
	}
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return nil
	}

	if hits := a.trie.Suggest(trimmed, k); len(hits) > 0 {
		return entriesFromSuggestions(hits)
	}

	for _, lead := range a.variations {
		if hits := a.trie.Suggest(lead+" "+trimmed, k); len(hits) > 0 {
			a.log.Debug("autocomplete prefix variation hit",
				slog.String("prefix", trimmed),
				slog.String("variation", lead))
			return entriesFromSuggestions(hits)
		}
	}

	tokens := Tokens(trimmed)
	if len(tokens) < 2 && len(Normalize(trimmed)) < spellFallbackMinChars {
		return nil
	}
	corrections, err := a.corrector.Correct(trimmed, k)
	if err != nil {
		if !errors.Is(err, ErrNoSuggestion) {
			a.log.Warn("spell correction failed", slog.String("prefix", trimmed), slog.Any("error", err))
		}
		return nil
	}

	out := make([]Candidate, 0, len(corrections))
	for _, corr := range corrections {
		meta, ok := a.trie.Lookup(corr.Phrase)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Name:       meta.Original,
			Type:       meta.Type,
			Frequency:  meta.Frequency,
			Provenance: ProvenanceSpellCorrection,
		})
	}
	return out
}

func entriesFromSuggestions(hits []Suggestion) []Candidate {
	out := make([]Candidate, len(hits))
	for i, hit := range hits {
		out[i] = Candidate{
			Name:       hit.Name,
			Type:       hit.Type,
			Frequency:  hit.Frequency,
			Provenance: ProvenanceAutocomplete,
		}
	}
	return out
}
