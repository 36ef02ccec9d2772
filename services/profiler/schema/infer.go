// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import "strings"

// typeKeywords is an ordered classifier: the first entry whose keyword list
// matches the lowercased name wins. Order matters — "medical school" should
// classify as university before the hospital row sees "medical".
var typeKeywords = []struct {
	t        InstitutionType
	keywords []string
}{
	{TypeUniversity, []string{"university", "college", "institute", "school", "academy", "polytechnic"}},
	{TypeHospital, []string{"hospital", "clinic", "medical", "health", "healthcare", "infirmary"}},
	{TypeBank, []string{"bank", "banking", "financial", "finance", "credit union"}},
}

// InferType classifies an institution name with the ordered keyword table.
// Returns TypeGeneral when nothing matches.
func InferType(name string) InstitutionType {
	lower := strings.ToLower(name)
	for _, row := range typeKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				return row.t
			}
		}
	}
	return TypeGeneral
}

// TypeKeywords returns the keyword list used to classify type t. Search query
// construction counts these against candidate URLs and titles.
func TypeKeywords(t InstitutionType) []string {
	for _, row := range typeKeywords {
		if row.t == t {
			return row.keywords
		}
	}
	return nil
}
