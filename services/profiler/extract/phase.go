// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/crawl"
	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// Media relevance thresholds for merging crawl images into the profile.
const (
	imageRelevanceMin    = 3
	facilityRelevanceMin = 5
)

// Result is the extraction artifact: the schema record plus the media
// the crawler contributed.
type Result struct {
	Record         schema.Record       `json:"record"`
	Logos          []crawl.ScoredImage `json:"logos,omitempty"`
	Images         []crawl.ScoredImage `json:"images,omitempty"`
	FacilityImages []crawl.ScoredImage `json:"facility_images,omitempty"`
	SocialLinks    map[string][]string `json:"social_links,omitempty"`

	ModelID    string           `json:"model_id"`
	Provenance cache.Provenance `json:"provenance"`
	// Warnings carries dropped-key names and other non-fatal notes.
	Warnings []string `json:"warnings,omitempty"`
	// Failed marks the crawl-derived fallback record: the LLM call or its
	// response parse failed and only crawl fields are present.
	Failed bool `json:"failed,omitempty"`

	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	APICalls     int     `json:"api_calls"`
}

// Phase runs schema-guided extraction over prepared content.
type Phase struct {
	llm         providers.LLMClient
	cache       *cache.Store
	modelID     string
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// New wires the phase. The cache store should be opened WithoutSimilarity:
// extraction keys embed a content hash, so fuzzy matching is meaningless.
func New(llm providers.LLMClient, store *cache.Store, modelID string, maxTokens int, temperature float64, log *slog.Logger) *Phase {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	if log == nil {
		log = slog.Default()
	}
	return &Phase{
		llm:         llm,
		cache:       store,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		log:         log,
	}
}

// CacheKey builds the extraction cache key. The content hash and schema
// version invalidate cached records when either changes; the model tag
// keeps records from different models apart.
func CacheKey(key, preparedText, modelID string) string {
	sum := sha256.Sum256([]byte(preparedText))
	return strings.Join([]string{
		key,
		hex.EncodeToString(sum[:])[:16],
		schema.Version,
		modelID,
	}, "|")
}

// Run extracts a record for one institution.
//
// Inputs:
//   - key: the request's normalized cache key string.
//   - preparedText: the bounded payload from the content preparer.
//   - crawlResult: may be nil when the crawl phase was skipped or empty.
//
// Outputs:
//   - *Result: always non-nil. Failed is set on LLM or parse failure,
//     with the record reduced to crawl-derivable fields.
//   - error: only context cancellation; provider failures degrade instead.
func (p *Phase) Run(ctx context.Context, key, name string, instType schema.InstitutionType, preparedText string, crawlResult *crawl.Result, force bool) (*Result, error) {
	result := &Result{ModelID: p.modelID}

	record, prov, err := p.extractRecord(ctx, key, name, instType, preparedText, force, result)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if errors.Is(err, schema.ErrMismatch) {
			return result, err
		}
		p.log.Warn("extraction failed, building fallback record",
			slog.String("name", name),
			slog.Any("error", err))
		record = fallbackRecord(name, instType, crawlResult)
		result.Failed = true
		prov = cache.ProvenanceFresh
	}
	result.Record = record
	result.Provenance = prov

	ensureIdentity(result.Record, name, instType)
	mergeMedia(result, crawlResult)
	return result, nil
}

// extractRecord resolves the schema record through the extraction cache.
func (p *Phase) extractRecord(ctx context.Context, key, name string, instType schema.InstitutionType, preparedText string, force bool, result *Result) (schema.Record, cache.Provenance, error) {
	if p.llm == nil {
		return nil, "", fmt.Errorf("%w: no LLM configured", providers.ErrUnavailable)
	}

	fill := func(ctx context.Context) (json.RawMessage, error) {
		completion, err := p.llm.Complete(ctx, providers.LLMRequest{
			SystemPrompt: SystemPrompt(instType),
			UserPrompt:   UserPrompt(name, preparedText),
			ModelID:      p.modelID,
			MaxTokens:    p.maxTokens,
			Temperature:  p.temperature,
		})
		if err != nil {
			return nil, err
		}
		result.APICalls++
		result.InputTokens += completion.InputTokens
		result.OutputTokens += completion.OutputTokens
		result.CostUSD += completion.CostUSD

		var raw map[string]any
		if err := json.Unmarshal([]byte(StripFences(completion.Text)), &raw); err != nil {
			return nil, fmt.Errorf("response is not a JSON object: %w", err)
		}
		record, dropped, err := schema.ParseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("response shape: %w", err)
		}
		for _, k := range dropped {
			result.Warnings = append(result.Warnings, "dropped unknown field: "+k)
		}
		return json.Marshal(record)
	}

	raw, prov, err := p.cache.GetOrFill(ctx, CacheKey(key, preparedText, p.modelID), force, fill)
	if err != nil {
		return nil, "", err
	}
	var record schema.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, "", fmt.Errorf("%w: decode cached record: %v", schema.ErrMismatch, err)
	}
	return record, prov, nil
}

// ensureIdentity guarantees the record names its subject even when the
// model omitted the basics.
func ensureIdentity(record schema.Record, name string, instType schema.InstitutionType) {
	if !record.Populated("name") {
		record.Set("name", schema.Text(name))
	}
	if !record.Populated("type") {
		record.Set("type", schema.Text(string(instType)))
	}
}

// fallbackRecord builds the crawl-derived record used when extraction
// fails: subject identity plus whatever the crawler established directly.
func fallbackRecord(name string, instType schema.InstitutionType, crawlResult *crawl.Result) schema.Record {
	record := make(schema.Record)
	record.Set("name", schema.Text(name))
	record.Set("type", schema.Text(string(instType)))
	if crawlResult == nil || len(crawlResult.Pages) == 0 {
		return record
	}

	first := crawlResult.Pages[0].Artifact
	if site := siteOf(first.URL); site != "" {
		record.Set("website", schema.Text(site))
	}
	if title := first.Title(); title != "" {
		record.Set("official_name", schema.Text(title))
	}
	if desc := first.Metadata["description"]; desc != "" {
		record.Set("description", schema.Text(desc))
	}
	return record
}

// siteOf reduces a page URL to its scheme://host origin.
func siteOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// mergeMedia folds the crawl phase's scored media into the result and
// mirrors social links into the record's social_media field.
func mergeMedia(result *Result, crawlResult *crawl.Result) {
	if crawlResult == nil {
		return
	}
	result.Logos = crawlResult.Logos

	for _, page := range crawlResult.Pages {
		for _, img := range page.Images {
			if img.Relevance >= imageRelevanceMin {
				result.Images = append(result.Images, img)
			}
			if img.Relevance >= facilityRelevanceMin {
				result.FacilityImages = append(result.FacilityImages, img)
			}
		}
	}
	sort.SliceStable(result.Images, func(i, j int) bool {
		return result.Images[i].Relevance > result.Images[j].Relevance
	})
	sort.SliceStable(result.FacilityImages, func(i, j int) bool {
		return result.FacilityImages[i].Relevance > result.FacilityImages[j].Relevance
	})

	if len(crawlResult.SocialLinks) > 0 {
		result.SocialLinks = crawlResult.SocialLinks

		platforms := make([]string, 0, len(crawlResult.SocialLinks))
		for platform := range crawlResult.SocialLinks {
			platforms = append(platforms, platform)
		}
		sort.Strings(platforms)
		var links []string
		for _, platform := range platforms {
			links = append(links, crawlResult.SocialLinks[platform]...)
		}
		result.Record.Set("social_media", schema.TextList(links...))
	}
}
