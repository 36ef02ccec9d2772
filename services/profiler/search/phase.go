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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// descriptionSources is how many top links contribute to the initial
// description text.
const descriptionSources = 3

// Result is the search phase artifact. It is the unit cached under the
// request's normalized key.
type Result struct {
	Query string       `json:"query"`
	Links []ScoredLink `json:"links"`
	// Description is assembled from the top result snippets; it doubles
	// as the extraction fallback text when crawling yields nothing.
	Description string `json:"description"`
	// Notes is the human-readable provenance trail for the phase.
	Notes []string `json:"notes,omitempty"`
}

// Phase runs web search with caching and link prioritization.
type Phase struct {
	provider providers.SearchProvider
	cache    *cache.Store
	maxLinks int
	log      *slog.Logger
}

// New wires the phase. provider may be nil; Run then fails with
// providers.ErrUnavailable and the orchestrator degrades.
func New(provider providers.SearchProvider, store *cache.Store, maxLinks int, log *slog.Logger) *Phase {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	if log == nil {
		log = slog.Default()
	}
	return &Phase{provider: provider, cache: store, maxLinks: maxLinks, log: log}
}

// Run resolves (name, type, options) to a ranked link list, through the
// search cache.
//
// Inputs:
//   - key: the request's normalized cache key string.
//   - force: bypass the cache read path.
//
// Outputs:
//   - *Result: never nil on success.
//   - cache.Provenance: how the result was produced.
//   - error: provider transport failure (wraps providers.ErrUnavailable or
//     ErrRateLimited) or context cancellation.
func (p *Phase) Run(ctx context.Context, key, name string, t schema.InstitutionType, opts Options, force bool) (*Result, cache.Provenance, error) {
	fill := func(ctx context.Context) (json.RawMessage, error) {
		if p.provider == nil {
			return nil, fmt.Errorf("%w: no search provider configured", providers.ErrUnavailable)
		}
		query := BuildQuery(name, t, opts)
		results, err := p.provider.Search(ctx, query, providers.SearchOptions{
			NumResults: p.maxLinks * 2, // headroom for dedup and low-tier trimming
			SafeSearch: true,
		})
		if err != nil {
			return nil, err
		}
		links := RankLinks(results, t, opts.DomainHint, p.maxLinks)
		result := Result{
			Query:       query,
			Links:       links,
			Description: buildDescription(name, links),
			Notes:       buildNotes(query, results, links),
		}
		p.log.Debug("search complete",
			slog.String("name", name),
			slog.Int("results", len(results)),
			slog.Int("ranked", len(links)))
		return json.Marshal(result)
	}

	raw, prov, err := p.cache.GetOrFill(ctx, key, force, fill)
	if err != nil {
		return nil, "", err
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, "", fmt.Errorf("decode cached search result: %w", err)
	}
	return &result, prov, nil
}

// buildNotes records where the links came from, for operators reading a
// saved profile.
func buildNotes(query string, results []providers.SearchResult, links []ScoredLink) []string {
	notes := []string{
		fmt.Sprintf("query %q returned %d results, kept %d", query, len(results), len(links)),
	}
	for _, link := range links {
		if link.Tier == TierHigh {
			notes = append(notes, "official site candidate: "+link.URL)
			break
		}
	}
	return notes
}

// buildDescription joins the top snippets into a short provisional
// description of the institution.
func buildDescription(name string, links []ScoredLink) string {
	var parts []string
	for i, link := range links {
		if i >= descriptionSources {
			break
		}
		snippet := strings.TrimSpace(link.Snippet)
		if snippet == "" {
			continue
		}
		if title := strings.TrimSpace(link.Title); title != "" {
			parts = append(parts, title+": "+snippet)
		} else {
			parts = append(parts, snippet)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return name + ". " + strings.Join(parts, "\n\n")
}
