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
	"testing"

	"github.com/AleutianAI/profiler/services/profiler/search"
)

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"equal":          StrategyEqual,
		"priority_based": StrategyPriorityBased,
		"high_links":     StrategyHighLinks,
		"high_depth":     StrategyHighDepth,
		"":               StrategyPriorityBased,
		"bogus":          StrategyPriorityBased,
	}
	for in, want := range cases {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPriorityBasedBudgets(t *testing.T) {
	budgets := Budgets(StrategyPriorityBased)
	want := map[search.Tier]Budget{
		search.TierHigh:   {MaxDepth: 3, MaxPages: 25},
		search.TierMedium: {MaxDepth: 2, MaxPages: 15},
		search.TierLow:    {MaxDepth: 1, MaxPages: 8},
	}
	for tier, b := range want {
		if budgets[tier] != b {
			t.Errorf("tier %v budget = %+v, want %+v", tier, budgets[tier], b)
		}
	}
}

func TestEqualBudgetsUniform(t *testing.T) {
	budgets := Budgets(StrategyEqual)
	if budgets[search.TierHigh] != budgets[search.TierLow] {
		t.Errorf("equal strategy differs across tiers: %+v vs %+v",
			budgets[search.TierHigh], budgets[search.TierLow])
	}
}

func TestStrategyTradeoffs(t *testing.T) {
	links := Budgets(StrategyHighLinks)
	depth := Budgets(StrategyHighDepth)
	base := Budgets(StrategyPriorityBased)

	if links[search.TierHigh].MaxPages <= base[search.TierHigh].MaxPages {
		t.Error("high_links does not widen the high tier")
	}
	if depth[search.TierHigh].MaxDepth <= base[search.TierHigh].MaxDepth {
		t.Error("high_depth does not deepen the high tier")
	}
}
