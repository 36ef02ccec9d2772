// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package crawl

import "github.com/AleutianAI/profiler/services/profiler/providers"

// ContentRichness scores one page 0-100: how much the extractor can get
// out of it. Budget: content presence 40, media 30, metadata 20,
// structured data 10.
func ContentRichness(a *providers.CrawlArtifact) int {
	score := 0

	switch text := len(a.Markdown.PrimaryContent); {
	case text > 2000:
		score += 40
	case text > 500:
		score += 30
	case text > 100:
		score += 15
	case text > 0:
		score += 5
	}

	media := 0
	if len(a.Images) > 0 {
		media += 15
	}
	if len(a.Videos) > 0 {
		media += 10
	}
	if len(a.Audio) > 0 {
		media += 5
	}
	score += media

	if a.Metadata["title"] != "" {
		score += 10
	}
	if a.Metadata["description"] != "" {
		score += 10
	}

	if len(a.StructuredData) > 0 {
		score += 10
	}
	return score
}
