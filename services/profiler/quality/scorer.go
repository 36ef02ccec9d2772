// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package quality scores a finished institution record 0-100. The scorer
// is pure: same record and signals, same score.
package quality

import (
	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// baseCeiling is the share of the score driven by field coverage; the
// remainder is bonus points.
const baseCeiling = 75.0

// lowCacheHitMax marks a run as freshly sourced rather than cache-served.
const lowCacheHitMax = 0.5

// megabyte in bytes, the crawl volume bonus bar.
const megabyte = 1 << 20

// Signals carries the non-record evidence the bonus points draw on.
type Signals struct {
	HasLogo            bool
	ImageCount         int
	FacilityImageCount int
	HasCampusImage     bool

	SocialLinkCount int
	DocumentCount   int
	SourceCount     int

	CrawlSuccessRate float64
	TotalBytes       int64
	CacheHitRate     float64

	// PhasesSucceeded counts search, crawl, and extract completions, 0-3.
	PhasesSucceeded int
}

// Assessment is the scored result with its breakdown.
type Assessment struct {
	Score  float64 `json:"score"`
	Base   float64 `json:"base"`
	Bonus  float64 `json:"bonus"`
	Rating string  `json:"rating"`
	// Coverage is the per-class present/eligible ratio.
	Coverage map[schema.FieldClass]float64 `json:"coverage"`
}

// Score assesses one record.
//
// Field coverage is weighted per class and scaled to 75 points; up to 25
// bonus points reward media, richness, sourcing, and a clean run. When the
// institution type leaves a class with no eligible fields, the class drops
// out and the remaining weights are renormalized, so a fully-populated
// general record still reaches full base marks.
func Score(record schema.Record, sig Signals) Assessment {
	instType := record.InstitutionType()
	coverage := make(map[schema.FieldClass]float64, len(schema.Classes))

	weightedSum := 0.0
	totalWeight := 0.0
	for _, class := range schema.Classes {
		eligible := schema.Eligible(class, instType)
		if len(eligible) == 0 {
			continue
		}
		present := 0
		for _, f := range eligible {
			if record.Populated(f.Name) {
				present++
			}
		}
		ratio := float64(present) / float64(len(eligible))
		coverage[class] = ratio
		weightedSum += class.Weight() * ratio
		totalWeight += class.Weight()
	}
	base := 0.0
	if totalWeight > 0 {
		base = weightedSum / totalWeight * baseCeiling
	}

	bonus := visualBonus(sig) + richnessBonus(sig) + sourceBonus(sig) + processingBonus(sig)

	score := base + bonus
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return Assessment{
		Score:    score,
		Base:     base,
		Bonus:    bonus,
		Rating:   Rating(score),
		Coverage: coverage,
	}
}

// visualBonus awards up to 8 points for media evidence.
func visualBonus(sig Signals) float64 {
	points := 0.0
	if sig.HasLogo {
		points += 3
	}
	if sig.ImageCount >= 1 {
		points += 2
	}
	if sig.FacilityImageCount >= 1 {
		points += 2
	}
	if sig.HasCampusImage {
		points++
	}
	return points
}

// richnessBonus awards up to 7 points for supporting material.
func richnessBonus(sig Signals) float64 {
	points := 0.0
	if sig.SocialLinkCount > 0 {
		points += 2
	}
	if sig.DocumentCount > 0 {
		points += 2
	}
	if sig.SourceCount >= 3 {
		points += 3
	}
	return points
}

// sourceBonus awards up to 10 points for sourcing quality.
func sourceBonus(sig Signals) float64 {
	points := 0.0
	if sig.CrawlSuccessRate >= 0.8 {
		points += 3
	}
	if sig.TotalBytes > megabyte {
		points += 2
	}
	if sig.CacheHitRate < lowCacheHitMax {
		points += 2
	}
	if sig.SourceCount >= 2 {
		points += 3
	}
	return points
}

// processingBonus awards up to 5 points for a clean phase chain.
func processingBonus(sig Signals) float64 {
	switch {
	case sig.PhasesSucceeded >= 3:
		return 3 + 2
	case sig.PhasesSucceeded == 2:
		return 2
	}
	return 0
}

// Rating maps a score to its band.
func Rating(score float64) string {
	switch {
	case score >= 90:
		return "Exceptional"
	case score >= 80:
		return "Excellent"
	case score >= 70:
		return "Very Good"
	case score >= 60:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 35:
		return "Poor"
	case score >= 20:
		return "Very Poor"
	}
	return "Minimal"
}
