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
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// FactoryConfig selects and parametrizes the concrete providers.
type FactoryConfig struct {
	// SearchURL is the search sidecar base URL.
	SearchURL string
	// SearchRateLimit / SearchRateWindow bound outbound search calls.
	SearchRateLimit  int
	SearchRateWindow time.Duration
	// CrawlerURL is the crawler sidecar base URL.
	CrawlerURL string
	// LLMProvider selects the langchaingo backend: "openai" or "ollama".
	LLMProvider string
	// LLMModel is the default model ID.
	LLMModel string
	// OllamaURL overrides the local ollama endpoint.
	OllamaURL string
	// PricingOverrides adjusts or zeroes per-model rates.
	PricingOverrides map[string]ModelPricing
}

// NewServices assembles the capability bundle from configuration. Each
// capability is optional at this layer: a missing sidecar URL leaves the
// field nil and the corresponding phase degrades at run time.
func NewServices(cfg FactoryConfig, log *slog.Logger) (*Services, error) {
	if log == nil {
		log = slog.Default()
	}
	services := &Services{}

	if cfg.SearchURL != "" {
		var limiter *SlidingWindowLimiter
		if cfg.SearchRateLimit > 0 {
			limiter = NewSlidingWindowLimiter(cfg.SearchRateLimit, cfg.SearchRateWindow)
		}
		services.Search = NewRateLimitedSearch(
			NewHTTPSearchProvider(cfg.SearchURL, nil), limiter, 0, log)
		log.Info("search provider configured", slog.String("url", cfg.SearchURL))
	}

	if cfg.CrawlerURL != "" {
		services.Crawler = NewHTTPCrawlerEngine(cfg.CrawlerURL, nil)
		log.Info("crawler engine configured", slog.String("url", cfg.CrawlerURL))
	}

	if cfg.LLMProvider != "" {
		model, err := newLangchainModel(cfg)
		if err != nil {
			return nil, err
		}
		pricing := NewPricing(cfg.PricingOverrides)
		services.LLM = NewLangchainLLM(model, pricing, cfg.LLMModel)
		log.Info("llm configured",
			slog.String("provider", cfg.LLMProvider),
			slog.String("model", cfg.LLMModel))
	}

	return services, nil
}

func newLangchainModel(cfg FactoryConfig) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "openai":
		// API key and base URL come from the standard environment variables.
		model, err := openai.New(openai.WithModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return model, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.LLMModel)}
		if cfg.OllamaURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.OllamaURL))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init ollama client: %w", err)
		}
		return model, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}
