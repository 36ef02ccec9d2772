// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers defines the narrow capability interfaces the pipeline
// consumes — web search, page crawling, LLM completion — together with the
// concrete adapters shipped with the service. Phases depend only on the
// interfaces; a Services bundle assembled at startup supplies the
// implementations, so there is no process-wide provider state.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Transport-level sentinel errors shared by all providers.
var (
	// ErrRateLimited marks a provider refusal that is retryable after
	// backoff.
	ErrRateLimited = errors.New("providers: rate limited")
	// ErrUnavailable marks a transport failure; the calling phase degrades.
	ErrUnavailable = errors.New("providers: unavailable")
)

// =============================================================================
// Search capability
// =============================================================================

// SearchOptions tune one search call.
type SearchOptions struct {
	NumResults int
	Language   string
	Country    string
	SafeSearch bool
}

// SearchResult is one web result row.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}

// SearchProvider is the web-search capability.
type SearchProvider interface {
	// Search runs one query. Transport failures wrap ErrUnavailable or
	// ErrRateLimited.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// =============================================================================
// Crawler capability
// =============================================================================

// Image is one page image with the attributes the media scorer consumes.
type Image struct {
	Src         string `json:"src"`
	Alt         string `json:"alt"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Context     string `json:"surrounding_text_snippet"`
	DOMLocation string `json:"dom_location"`
}

// Markdown carries the crawler's markdown renderings of a page.
type Markdown struct {
	PrimaryContent string `json:"primary_content"`
	Full           string `json:"full,omitempty"`
}

// CrawlArtifact is everything the engine captured for one URL.
type CrawlArtifact struct {
	URL            string            `json:"url"`
	Status         int               `json:"status"`
	RawHTML        string            `json:"raw_html,omitempty"`
	CleanedHTML    string            `json:"cleaned_html,omitempty"`
	Markdown       Markdown          `json:"markdown"`
	StructuredData []json.RawMessage `json:"structured_data,omitempty"`
	Images         []Image           `json:"images,omitempty"`
	Videos         []string          `json:"videos,omitempty"`
	Audio          []string          `json:"audio,omitempty"`
	InternalLinks  []string          `json:"internal_links,omitempty"`
	ExternalLinks  []string          `json:"external_links,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	FetchedAt      time.Time         `json:"fetched_at"`
	SizeBytes      int64             `json:"size_bytes"`
}

// Title returns the page title from metadata, empty when absent.
func (a *CrawlArtifact) Title() string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata["title"]
}

// CrawlOptions tune one fetch.
type CrawlOptions struct {
	JSEnabled   bool
	Timeout     time.Duration
	FollowDepth int
	MaxPages    int
}

// CrawlerEngine is the headless-browser crawling capability.
type CrawlerEngine interface {
	// Fetch captures one URL. Transport failures wrap ErrUnavailable.
	Fetch(ctx context.Context, url string, opts CrawlOptions) (*CrawlArtifact, error)
}

// =============================================================================
// LLM capability
// =============================================================================

// LLMRequest is one completion call.
type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	ModelID      string
	MaxTokens    int
	Temperature  float64
}

// LLMResult carries the completion plus the accounting the benchmark
// records.
type LLMResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// LLMClient is the completion capability.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (*LLMResult, error)
}

// =============================================================================
// Services bundle
// =============================================================================

// Services is the capability bundle threaded through the pipeline.
type Services struct {
	Search  SearchProvider
	Crawler CrawlerEngine
	LLM     LLMClient
}
