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

import (
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/providers"
)

// =============================================================================
// Media scoring — logo confidence and image relevance
// =============================================================================

// Logo classification thresholds.
const (
	// LogoCandidateMin classifies an image as a logo candidate.
	LogoCandidateMin = 0.5
	// confirmedLogoMin is the relevance-6 bar.
	confirmedLogoMin = 0.8
)

// Logo confidence accumulators.
const (
	logoSrcWeight      = 0.4
	logoAltWeight      = 0.3
	logoDimsWeight     = 0.2
	logoLocationWeight = 0.2
)

var srcLogoIndicators = []string{"logo", "brand"}

// facilityTerms mark photographs of campuses, buildings, and branded
// spaces.
var facilityTerms = []string{
	"campus", "building", "facility", "facilities", "library",
	"laboratory", "branch", "headquarters", "ward", "lobby", "aerial",
}

// activityTerms mark programs, events, and people photography.
var activityTerms = []string{
	"student", "staff", "program", "event", "research", "graduation",
	"ceremony", "conference", "class", "team", "patient", "doctor",
}

// uiTerms mark interface affordances.
var uiTerms = []string{"icon", "arrow", "bullet", "spacer", "button", "chevron", "sprite"}

// decorativeTerms mark filler imagery.
var decorativeTerms = []string{"banner", "background", "divider", "pattern", "border", "placeholder"}

// adIndicators in a src host or path mark trackers and ad units.
var adIndicators = []string{
	"doubleclick", "googlesyndication", "adsystem", "adservice",
	"/ads/", "pixel", "analytics", "tracker", "sharethis", "addthis",
}

// ScoredImage is an image with both media scores attached.
type ScoredImage struct {
	providers.Image
	LogoConfidence float64 `json:"logo_confidence"`
	Relevance      int     `json:"relevance_score"`
	LogoCandidate  bool    `json:"logo_candidate"`
}

// LogoConfidence accumulates the logo heuristic for one image, clamped to
// [0, 1]. nameTokens are the normalized institution name tokens; tokens
// shorter than three characters are too ambiguous to count in alt text.
func LogoConfidence(img providers.Image, nameTokens []string) float64 {
	confidence := 0.0
	src := strings.ToLower(img.Src)
	alt := strings.ToLower(img.Alt)

	for _, ind := range srcLogoIndicators {
		if strings.Contains(src, ind) {
			confidence += logoSrcWeight
			break
		}
	}

	altHit := strings.Contains(alt, "logo")
	if !altHit {
		for _, tok := range nameTokens {
			if len(tok) >= 3 && strings.Contains(alt, tok) {
				altHit = true
				break
			}
		}
	}
	if altHit {
		confidence += logoAltWeight
	}

	if img.Width >= 50 && img.Width <= 400 && img.Height >= 50 && img.Height <= 200 {
		confidence += logoDimsWeight
	}

	if img.DOMLocation == "header" || img.DOMLocation == "near-title" {
		confidence += logoLocationWeight
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// RelevanceScore assigns the 0-6 usefulness band for one image. The
// bands are checked as an ordered ladder; where ranges overlap, the more
// conservative (lower) band is placed earlier so it wins.
func RelevanceScore(img providers.Image, logoConfidence float64) int {
	src := strings.ToLower(img.Src)
	alt := strings.ToLower(img.Alt)
	ctx := strings.ToLower(img.Context)
	dimsKnown := img.Width > 0 && img.Height > 0

	// 0: advertisement, social-share widget, or tracker.
	for _, ind := range adIndicators {
		if strings.Contains(src, ind) {
			return 0
		}
	}
	if img.DOMLocation == "social-share" {
		return 0
	}

	// 6: confirmed logo.
	if logoConfidence >= confirmedLogoMin {
		return 6
	}

	// 1: navigation or UI icon.
	if dimsKnown && img.Width <= 64 && img.Height <= 64 {
		return 1
	}
	if containsAny(src, uiTerms) || containsAny(alt, uiTerms) || img.DOMLocation == "nav" {
		return 1
	}

	// 2: decorative.
	if dimsKnown && (img.Width < 200 || img.Height < 200) {
		return 2
	}
	if containsAny(src, decorativeTerms) || containsAny(alt, decorativeTerms) {
		return 2
	}

	// 5: facility photograph.
	if dimsKnown && img.Width >= 300 && img.Height >= 300 &&
		(containsAny(alt, facilityTerms) || containsAny(ctx, facilityTerms)) {
		return 5
	}

	// 4: activity photograph.
	if dimsKnown && img.Width >= 200 && img.Height >= 200 &&
		(containsAny(alt, activityTerms) || containsAny(ctx, activityTerms)) {
		return 4
	}

	// 3: generic main-content placement.
	if img.DOMLocation == "main-content" {
		return 3
	}
	return 2
}

// ScoreImage computes both scores for one image.
func ScoreImage(img providers.Image, nameTokens []string) ScoredImage {
	confidence := LogoConfidence(img, nameTokens)
	return ScoredImage{
		Image:          img,
		LogoConfidence: confidence,
		Relevance:      RelevanceScore(img, confidence),
		LogoCandidate:  confidence >= LogoCandidateMin,
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
