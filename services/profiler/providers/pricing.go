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
	"strings"
	"sync"
)

// ModelPricing holds USD rates per million tokens for one model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// defaultPricing covers the models the service is normally configured
// with. Unknown models fall back to the "default" row so cost accounting
// degrades to an estimate instead of zero.
var defaultPricing = map[string]ModelPricing{
	"gpt-4o":        {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":   {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4.1":       {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"gpt-4.1-mini":  {InputPerMTok: 0.40, OutputPerMTok: 1.60},
	"gemini-2.0-flash": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"gemini-1.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 5.00},
	"default":       {InputPerMTok: 1.00, OutputPerMTok: 4.00},
}

// Pricing estimates completion cost from token counts.
//
// Thread Safety: safe for concurrent use.
type Pricing struct {
	mu     sync.RWMutex
	models map[string]ModelPricing
}

// NewPricing builds a table from the defaults plus overrides (typically
// from configuration). Local models can be zeroed with an explicit
// override.
func NewPricing(overrides map[string]ModelPricing) *Pricing {
	models := make(map[string]ModelPricing, len(defaultPricing)+len(overrides))
	for id, p := range defaultPricing {
		models[id] = p
	}
	for id, p := range overrides {
		models[id] = p
	}
	return &Pricing{models: models}
}

// Estimate returns the USD cost of one completion. Model lookup is by
// exact ID, then by prefix ("gpt-4o-2024-08-06" matches "gpt-4o"), then
// the default row.
func (p *Pricing) Estimate(modelID string, inputTokens, outputTokens int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pricing, ok := p.models[modelID]
	if !ok {
		for id, candidate := range p.models {
			if id != "default" && strings.HasPrefix(modelID, id) {
				pricing, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		pricing = p.models["default"]
	}
	return float64(inputTokens)/1e6*pricing.InputPerMTok +
		float64(outputTokens)/1e6*pricing.OutputPerMTok
}
