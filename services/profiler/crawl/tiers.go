// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package crawl fetches prioritized URLs through the crawler engine with
// bounded concurrency, scores page media (logo confidence, image
// relevance), and aggregates page text for extraction.
package crawl

import (
	"github.com/AleutianAI/profiler/services/profiler/search"
)

// Strategy modulates the per-tier resource table. It is a benchmark
// dimension: runs are comparable within one strategy.
type Strategy string

const (
	StrategyEqual         Strategy = "equal"
	StrategyPriorityBased Strategy = "priority_based"
	StrategyHighLinks     Strategy = "high_links"
	StrategyHighDepth     Strategy = "high_depth"
)

// ParseStrategy maps a tag to a Strategy, defaulting to priority_based.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyEqual, StrategyPriorityBased, StrategyHighLinks, StrategyHighDepth:
		return Strategy(s)
	}
	return StrategyPriorityBased
}

// Budget is the per-tier crawl allowance.
type Budget struct {
	MaxDepth int
	MaxPages int
}

// Budgets returns the tier table for a strategy. priority_based carries
// the defaults; the others trade depth against breadth.
func Budgets(s Strategy) map[search.Tier]Budget {
	switch s {
	case StrategyEqual:
		return map[search.Tier]Budget{
			search.TierHigh:   {MaxDepth: 2, MaxPages: 16},
			search.TierMedium: {MaxDepth: 2, MaxPages: 16},
			search.TierLow:    {MaxDepth: 2, MaxPages: 16},
		}
	case StrategyHighLinks:
		return map[search.Tier]Budget{
			search.TierHigh:   {MaxDepth: 2, MaxPages: 35},
			search.TierMedium: {MaxDepth: 1, MaxPages: 20},
			search.TierLow:    {MaxDepth: 1, MaxPages: 10},
		}
	case StrategyHighDepth:
		return map[search.Tier]Budget{
			search.TierHigh:   {MaxDepth: 4, MaxPages: 15},
			search.TierMedium: {MaxDepth: 3, MaxPages: 10},
			search.TierLow:    {MaxDepth: 2, MaxPages: 5},
		}
	default: // priority_based
		return map[search.Tier]Budget{
			search.TierHigh:   {MaxDepth: 3, MaxPages: 25},
			search.TierMedium: {MaxDepth: 2, MaxPages: 15},
			search.TierLow:    {MaxDepth: 1, MaxPages: 8},
		}
	}
}
