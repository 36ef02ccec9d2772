// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"net/url"
	"sort"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// Tier is the crawl-priority bucket of a scored link.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier thresholds on the link score.
const (
	tierHighMin   = 100
	tierMediumMin = 50
)

// DefaultMaxLinks bounds how many ranked links the phase returns.
const DefaultMaxLinks = 15

// Scoring deltas.
const (
	scorePreferredTLD  = 100
	scoreTypeKeyword   = 15
	maxKeywordHits     = 3
	scoreOfficial      = 50
	scoreSocialPenalty = -20
	scoreDomainHint    = 20
)

// socialHosts are penalized; profiles there are rarely the official site.
var socialHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com",
	"linkedin.com", "youtube.com", "tiktok.com", "pinterest.com",
	"wikipedia.org",
}

// ScoredLink is a search result with its priority score and tier.
type ScoredLink struct {
	providers.SearchResult
	Score int  `json:"score"`
	Tier  Tier `json:"tier"`
}

// ScoreLink computes the priority score for one result.
func ScoreLink(result providers.SearchResult, t schema.InstitutionType, domainHint string) int {
	score := 0
	domain := strings.ToLower(result.Domain)
	if domain == "" {
		if u, err := url.Parse(result.URL); err == nil {
			domain = strings.ToLower(u.Hostname())
		}
	}
	domain = strings.TrimPrefix(domain, "www.")
	lowerURL := strings.ToLower(result.URL)
	lowerTitle := strings.ToLower(result.Title)

	for _, tld := range preferredTLDs[t] {
		if strings.HasSuffix(domain, "."+tld) {
			score += scorePreferredTLD
			break
		}
	}

	hits := 0
	for _, kw := range schema.TypeKeywords(t) {
		if hits >= maxKeywordHits {
			break
		}
		if strings.Contains(lowerURL, kw) || strings.Contains(lowerTitle, kw) {
			score += scoreTypeKeyword
			hits++
		}
	}

	if isOfficialIndicator(result.URL, lowerTitle) {
		score += scoreOfficial
	}

	for _, host := range socialHosts {
		if domain == host || strings.HasSuffix(domain, "."+host) {
			score += scoreSocialPenalty
			break
		}
	}

	if domainHint != "" && strings.HasSuffix(domain, strings.ToLower(strings.TrimPrefix(domainHint, "www."))) {
		score += scoreDomainHint
	}
	return score
}

// isOfficialIndicator spots homepage paths, about pages, and "official"
// titles.
func isOfficialIndicator(rawURL, lowerTitle string) bool {
	if strings.Contains(lowerTitle, "official") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return true
	}
	return strings.Contains(strings.ToLower(path), "about")
}

// TierFor maps a score to its tier.
func TierFor(score int) Tier {
	switch {
	case score >= tierHighMin:
		return TierHigh
	case score >= tierMediumMin:
		return TierMedium
	default:
		return TierLow
	}
}

// tierRank orders tiers for sorting.
func tierRank(t Tier) int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	default:
		return 2
	}
}

// RankLinks scores, tiers, and orders results, returning the top maxLinks
// in tier-then-score order. Ties order by URL for determinism.
func RankLinks(results []providers.SearchResult, t schema.InstitutionType, domainHint string, maxLinks int) []ScoredLink {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	scored := make([]ScoredLink, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.URL]; dup || r.URL == "" {
			continue
		}
		seen[r.URL] = struct{}{}
		score := ScoreLink(r, t, domainHint)
		scored = append(scored, ScoredLink{SearchResult: r, Score: score, Tier: TierFor(score)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if a, b := tierRank(scored[i].Tier), tierRank(scored[j].Tier); a != b {
			return a < b
		}
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].URL < scored[j].URL
	})
	if len(scored) > maxLinks {
		scored = scored[:maxLinks]
	}
	return scored
}
