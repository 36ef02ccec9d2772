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

// The search provider and the headless-browser crawler run as sidecar
// services; these clients speak their JSON APIs. Both map HTTP 429 to
// ErrRateLimited and any other transport problem to ErrUnavailable so the
// phases can make degradation decisions without knowing the wire details.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 90 * time.Second

func postJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", ErrRateLimited, url)
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// =============================================================================
// HTTPSearchProvider
// =============================================================================

// HTTPSearchProvider calls a search sidecar's POST /search endpoint.
type HTTPSearchProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSearchProvider builds a client for the sidecar at baseURL.
func NewHTTPSearchProvider(baseURL string, client *http.Client) *HTTPSearchProvider {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSearchProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
	Language   string `json:"language,omitempty"`
	Country    string `json:"country,omitempty"`
	SafeSearch bool   `json:"safe_search"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search implements SearchProvider.
func (p *HTTPSearchProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	req := searchRequest{
		Query:      query,
		NumResults: opts.NumResults,
		Language:   opts.Language,
		Country:    opts.Country,
		SafeSearch: opts.SafeSearch,
	}
	var resp searchResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/search", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// =============================================================================
// HTTPCrawlerEngine
// =============================================================================

// HTTPCrawlerEngine calls a crawler sidecar's POST /crawl endpoint.
type HTTPCrawlerEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCrawlerEngine builds a client for the sidecar at baseURL.
func NewHTTPCrawlerEngine(baseURL string, client *http.Client) *HTTPCrawlerEngine {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPCrawlerEngine{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type crawlRequest struct {
	URL         string `json:"url"`
	JSEnabled   bool   `json:"js_enabled"`
	TimeoutS    int    `json:"timeout_s"`
	FollowDepth int    `json:"follow_depth"`
	MaxPages    int    `json:"max_pages"`
}

// Fetch implements CrawlerEngine.
func (e *HTTPCrawlerEngine) Fetch(ctx context.Context, url string, opts CrawlOptions) (*CrawlArtifact, error) {
	req := crawlRequest{
		URL:         url,
		JSEnabled:   opts.JSEnabled,
		TimeoutS:    int(opts.Timeout / time.Second),
		FollowDepth: opts.FollowDepth,
		MaxPages:    opts.MaxPages,
	}
	var artifact CrawlArtifact
	if err := postJSON(ctx, e.client, e.baseURL+"/crawl", req, &artifact); err != nil {
		return nil, err
	}
	if artifact.URL == "" {
		artifact.URL = url
	}
	if artifact.FetchedAt.IsZero() {
		artifact.FetchedAt = time.Now().UTC()
	}
	return &artifact, nil
}
