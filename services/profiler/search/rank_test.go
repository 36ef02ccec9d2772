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
	"strings"
	"testing"

	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
)

func TestScoreLinkOfficialUniversityHomepage(t *testing.T) {
	result := providers.SearchResult{
		URL:    "https://www.example.edu/",
		Title:  "Example University - Official Site",
		Domain: "www.example.edu",
	}
	score := ScoreLink(result, schema.TypeUniversity, "")
	// +100 .edu, +15 "university" keyword, +50 official homepage.
	if score != 165 {
		t.Errorf("score = %d, want 165", score)
	}
	if TierFor(score) != TierHigh {
		t.Errorf("tier = %v, want high", TierFor(score))
	}
}

func TestScoreLinkSocialPenalty(t *testing.T) {
	result := providers.SearchResult{
		URL:    "https://www.facebook.com/exampleuniversity",
		Title:  "Example University | Facebook",
		Domain: "www.facebook.com",
	}
	score := ScoreLink(result, schema.TypeUniversity, "")
	// +15 "university" keyword x1 (URL+title count once per keyword), -20 social.
	if score != -5 {
		t.Errorf("score = %d, want -5", score)
	}
	if TierFor(score) != TierLow {
		t.Errorf("tier = %v, want low", TierFor(score))
	}
}

func TestScoreLinkDomainHint(t *testing.T) {
	result := providers.SearchResult{
		URL:    "https://example.com/about",
		Title:  "About Example Bank",
		Domain: "example.com",
	}
	withHint := ScoreLink(result, schema.TypeBank, "example.com")
	without := ScoreLink(result, schema.TypeBank, "")
	if withHint-without != scoreDomainHint {
		t.Errorf("hint delta = %d, want %d", withHint-without, scoreDomainHint)
	}
}

func TestScoreLinkKeywordCap(t *testing.T) {
	result := providers.SearchResult{
		URL:    "https://medical-health-clinic-hospital.example.org/hospital/clinic",
		Title:  "Hospital clinic medical health healthcare",
		Domain: "medical-health-clinic-hospital.example.org",
	}
	score := ScoreLink(result, schema.TypeHospital, "")
	// +100 .org, keyword bonus capped at 3 hits.
	want := scorePreferredTLD + maxKeywordHits*scoreTypeKeyword
	if score != want {
		t.Errorf("score = %d, want %d", score, want)
	}
}

func TestRankLinksTierOrderAndCap(t *testing.T) {
	var results []providers.SearchResult
	results = append(results,
		providers.SearchResult{URL: "https://low.example.net/x/y", Title: "somewhere", Domain: "low.example.net"},
		providers.SearchResult{URL: "https://www.example.edu/", Title: "Example University", Domain: "www.example.edu"},
		providers.SearchResult{URL: "https://mid.example.net/about", Title: "about us", Domain: "mid.example.net"},
		providers.SearchResult{URL: "https://www.example.edu/", Title: "duplicate", Domain: "www.example.edu"},
	)
	ranked := RankLinks(results, schema.TypeUniversity, "", 15)
	if len(ranked) != 3 {
		t.Fatalf("ranked %d links, want 3 (dup removed)", len(ranked))
	}
	if ranked[0].URL != "https://www.example.edu/" || ranked[0].Tier != TierHigh {
		t.Errorf("first = %+v, want the .edu homepage in high tier", ranked[0])
	}
	for i := 1; i < len(ranked); i++ {
		if tierRank(ranked[i].Tier) < tierRank(ranked[i-1].Tier) {
			t.Errorf("tier order violated at %d", i)
		}
	}

	capped := RankLinks(results, schema.TypeUniversity, "", 2)
	if len(capped) != 2 {
		t.Errorf("cap not applied: %d", len(capped))
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("Example University", schema.TypeUniversity, Options{
		Location:     "Boston",
		DomainHint:   "example.edu",
		ExcludeTerms: "jobs salary",
	})
	for _, want := range []string{
		"Example University",
		"university college education academic research",
		"Boston",
		"site:example.edu",
		"-jobs",
		"-salary",
		"site:edu OR site:ac.uk",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}
