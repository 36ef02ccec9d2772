// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPricingEstimate(t *testing.T) {
	p := NewPricing(nil)

	// gpt-4o-mini: 0.15 in / 0.60 out per MTok.
	got := p.Estimate("gpt-4o-mini", 1_000_000, 500_000)
	if !almostEqual(got, 0.15+0.30) {
		t.Errorf("estimate = %v, want 0.45", got)
	}
}

func TestPricingPrefixMatch(t *testing.T) {
	p := NewPricing(nil)
	dated := p.Estimate("gpt-4o-2024-08-06", 1_000_000, 0)
	base := p.Estimate("gpt-4o", 1_000_000, 0)
	if !almostEqual(dated, base) {
		t.Errorf("dated model %v != base model %v", dated, base)
	}
}

func TestPricingUnknownFallsBack(t *testing.T) {
	p := NewPricing(nil)
	if got := p.Estimate("mystery-model", 1_000_000, 0); got <= 0 {
		t.Errorf("unknown model estimate = %v, want positive default", got)
	}
}

func TestPricingOverrides(t *testing.T) {
	p := NewPricing(map[string]ModelPricing{
		"llama3.1": {}, // local model, free
	})
	if got := p.Estimate("llama3.1", 2_000_000, 2_000_000); got != 0 {
		t.Errorf("local model estimate = %v, want 0", got)
	}
}
