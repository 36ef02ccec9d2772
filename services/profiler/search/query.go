// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search turns an institution name into a ranked, tiered list of
// candidate URLs plus a short snippet-derived description.
package search

import (
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// Options are the recognized search-refinement request options.
type Options struct {
	Location           string
	AdditionalKeywords string
	DomainHint         string
	ExcludeTerms       string
}

// enrichmentTerms are appended to the name per institution type.
var enrichmentTerms = map[schema.InstitutionType]string{
	schema.TypeUniversity: "university college education academic research",
	schema.TypeHospital:   "hospital medical healthcare patient services",
	schema.TypeBank:       "bank banking financial services",
	schema.TypeGeneral:    "organization official headquarters",
}

// siteFilterSuggestions nudge the provider toward institutional domains.
var siteFilterSuggestions = map[schema.InstitutionType]string{
	schema.TypeUniversity: "site:edu OR site:ac.uk",
	schema.TypeHospital:   "site:org OR site:gov",
}

// preferredTLDs earn the +100 link bonus per type. Derived from where
// official pages of each class actually live.
var preferredTLDs = map[schema.InstitutionType][]string{
	schema.TypeUniversity: {"edu", "ac.uk"},
	schema.TypeHospital:   {"org", "gov"},
	schema.TypeBank:       {"com"},
	schema.TypeGeneral:    {"org", "edu", "gov"},
}

// BuildQuery assembles the provider query string for (name, type, options).
// The caller resolves the type first (explicit or inferred via
// schema.InferType).
func BuildQuery(name string, t schema.InstitutionType, opts Options) string {
	parts := []string{strings.TrimSpace(name)}

	if terms := enrichmentTerms[t]; terms != "" {
		parts = append(parts, terms)
	}
	if opts.Location != "" {
		parts = append(parts, opts.Location)
	}
	if opts.AdditionalKeywords != "" {
		parts = append(parts, opts.AdditionalKeywords)
	}
	if opts.DomainHint != "" {
		parts = append(parts, "site:"+opts.DomainHint)
	}
	for _, term := range strings.Fields(opts.ExcludeTerms) {
		parts = append(parts, "-"+term)
	}
	if filter := siteFilterSuggestions[t]; filter != "" {
		parts = append(parts, filter)
	}
	return strings.Join(parts, " ")
}
