// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract turns prepared page content into a schema-shaped
// institution record through the LLM capability, merges crawl-derived
// media into the result, and caches extractions keyed on content and
// model so repeat runs are free.
package extract

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// classLabels order the schema classes as the prompt presents them.
var classLabels = map[schema.FieldClass]string{
	schema.ClassCritical:    "Critical fields (always try to fill these)",
	schema.ClassImportant:   "Important fields",
	schema.ClassValuable:    "Valuable fields",
	schema.ClassSpecialized: "Type-specific fields",
	schema.ClassEnhanced:    "Enhanced fields (fill only when clearly stated)",
}

// SystemPrompt embeds the field schema for one institution type. Only
// fields eligible for the type are listed, so the model never sees
// fields the scorer would ignore.
func SystemPrompt(t schema.InstitutionType) string {
	var b strings.Builder
	b.WriteString("You extract structured institution profiles from web content.\n")
	b.WriteString("Respond with a single JSON object and nothing else.\n")
	b.WriteString("Use only the field names listed below. Omit any field the content does not support; ")
	b.WriteString("never guess, never emit null or placeholder values like \"unknown\" or \"N/A\".\n")
	b.WriteString("String lists are JSON arrays of strings. Counts and amounts may be numbers.\n\n")
	fmt.Fprintf(&b, "Institution type: %s\n", t)

	for _, class := range schema.Classes {
		eligible := schema.Eligible(class, t)
		if len(eligible) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", classLabels[class])
		for _, f := range eligible {
			fmt.Fprintf(&b, "  - %s\n", f.Name)
		}
	}
	return b.String()
}

// UserPrompt frames the prepared content for one extraction call.
func UserPrompt(name string, prepared string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Institution: %s\n\n", name)
	if prepared == "" {
		b.WriteString("No page content is available. Emit only fields you can derive from the institution name itself.\n")
		return b.String()
	}
	b.WriteString("Content follows. Sections carry [page N: url] attribution headers.\n\n")
	b.WriteString(prepared)
	return b.String()
}

// StripFences removes a surrounding markdown code fence from a model
// response, tolerating a language tag on the opening fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(s[:idx])
		if first == "" || strings.EqualFold(first, "json") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
