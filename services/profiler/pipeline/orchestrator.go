// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline drives the search, crawl, and extract phases for one
// profiling request, degrades gracefully when a phase fails, and scores
// the final record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/AleutianAI/profiler/services/profiler/benchmark"
	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/content"
	"github.com/AleutianAI/profiler/services/profiler/crawl"
	"github.com/AleutianAI/profiler/services/profiler/dictionary"
	"github.com/AleutianAI/profiler/services/profiler/extract"
	"github.com/AleutianAI/profiler/services/profiler/quality"
	"github.com/AleutianAI/profiler/services/profiler/schema"
	"github.com/AleutianAI/profiler/services/profiler/search"
)

// Per-phase timeout defaults. A phase timeout degrades the phase; it does
// not fail the request.
const (
	DefaultSearchTimeout  = 10 * time.Second
	DefaultCrawlTimeout   = 60 * time.Second
	DefaultExtractTimeout = 30 * time.Second
)

// Timeouts bound each phase independently.
type Timeouts struct {
	Search  time.Duration
	Crawl   time.Duration
	Extract time.Duration
}

// withDefaults fills zero fields.
func (t Timeouts) withDefaults() Timeouts {
	if t.Search <= 0 {
		t.Search = DefaultSearchTimeout
	}
	if t.Crawl <= 0 {
		t.Crawl = DefaultCrawlTimeout
	}
	if t.Extract <= 0 {
		t.Extract = DefaultExtractTimeout
	}
	return t
}

// Profile is the final result for one request.
type Profile struct {
	Key  string                 `json:"key"`
	Name string                 `json:"name"`
	Type schema.InstitutionType `json:"type"`

	Record         schema.Record       `json:"record"`
	Logos          []crawl.ScoredImage `json:"logos,omitempty"`
	Images         []crawl.ScoredImage `json:"images,omitempty"`
	FacilityImages []crawl.ScoredImage `json:"facility_images,omitempty"`
	SocialLinks    map[string][]string `json:"social_links,omitempty"`

	Quality quality.Assessment `json:"quality"`

	Degraded   bool        `json:"degraded,omitempty"`
	ErrorKinds []ErrorKind `json:"error_kinds,omitempty"`
	Partial    bool        `json:"partial,omitempty"`

	SessionID string        `json:"session_id,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Orchestrator wires the phases together.
type Orchestrator struct {
	keyer   *dictionary.Keyer
	search  *search.Phase
	crawl   *crawl.Phase
	extract *extract.Phase
	bench   *benchmark.Collector

	mu       sync.RWMutex
	timeouts Timeouts

	tracer trace.Tracer
	log    *slog.Logger
}

// NewOrchestrator assembles the pipeline. tracer may be nil; spans are
// then no-ops.
func NewOrchestrator(keyer *dictionary.Keyer, searchPhase *search.Phase, crawlPhase *crawl.Phase, extractPhase *extract.Phase, bench *benchmark.Collector, timeouts Timeouts, tracer trace.Tracer, log *slog.Logger) *Orchestrator {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("profiler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		keyer:    keyer,
		search:   searchPhase,
		crawl:    crawlPhase,
		extract:  extractPhase,
		bench:    bench,
		timeouts: timeouts.withDefaults(),
		tracer:   tracer,
		log:      log,
	}
}

// SetTimeouts replaces the phase timeouts for subsequent requests.
// Phases already running keep the bound they started with. Zero fields
// fall back to the defaults.
func (o *Orchestrator) SetTimeouts(t Timeouts) {
	o.mu.Lock()
	o.timeouts = t.withDefaults()
	o.mu.Unlock()
}

// phaseTimeouts snapshots the current bounds for one request.
func (o *Orchestrator) phaseTimeouts() Timeouts {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.timeouts
}

// Run executes the full phase chain for one request.
//
// Outputs:
//   - *Profile: non-nil on success, including degraded runs.
//   - error: only validation failures, schema mismatches, and cancellation.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, rootSpan := o.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("institution", req.InstitutionName)))
	defer rootSpan.End()

	pipelineSpan := o.bench.OpenSpan(benchmark.CategoryPipeline)
	started := time.Now()

	instType := req.ResolveType()
	key := o.keyer.Key(req.InstitutionName, instType, dictionary.FingerprintOptions(
		req.Location, req.AdditionalKeywords, req.DomainHint, req.ExcludeTerms,
	))

	profile := &Profile{
		Key:       key.String(),
		Name:      req.InstitutionName,
		Type:      instType,
		SessionID: o.bench.SessionID(),
	}

	searchResult, err := o.runSearch(ctx, profile, req, key.String(), instType)
	if err != nil {
		pipelineSpan.Close(false, string(KindCanceled))
		return nil, err
	}

	crawlResult, err := o.runCrawl(ctx, profile, req, searchResult)
	if err != nil {
		pipelineSpan.Close(false, string(KindCanceled))
		return nil, err
	}

	if req.SkipExtraction {
		profile.Partial = true
		profile.Record = partialRecord(req.InstitutionName, instType)
		o.finish(profile, crawlResult, nil, searchResult, pipelineSpan, started)
		return profile, nil
	}

	extractResult, err := o.runExtract(ctx, profile, req, key.String(), instType, searchResult, crawlResult)
	if err != nil {
		pipelineSpan.Close(false, string(KindCanceled))
		return nil, err
	}

	profile.Record = extractResult.Record
	profile.Logos = extractResult.Logos
	profile.Images = extractResult.Images
	profile.FacilityImages = extractResult.FacilityImages
	profile.SocialLinks = extractResult.SocialLinks

	o.finish(profile, crawlResult, extractResult, searchResult, pipelineSpan, started)
	return profile, nil
}

// runSearch executes the search phase under its timeout. A provider
// failure degrades to an empty link list.
func (o *Orchestrator) runSearch(ctx context.Context, profile *Profile, req *Request, key string, instType schema.InstitutionType) (*search.Result, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.search")
	defer span.End()
	bspan := o.bench.OpenSpan(benchmark.CategorySearch)

	phaseCtx, cancel := context.WithTimeout(ctx, o.phaseTimeouts().Search)
	defer cancel()

	result, prov, err := o.search.Run(phaseCtx, key, req.InstitutionName, instType, search.Options{
		Location:           req.Location,
		AdditionalKeywords: req.AdditionalKeywords,
		DomainHint:         req.DomainHint,
		ExcludeTerms:       req.ExcludeTerms,
	}, req.ForceRefresh)
	if err != nil {
		if canceled(ctx, err) {
			bspan.Close(false, string(KindCanceled))
			return nil, context.Cause(ctx)
		}
		o.degrade(profile, KindSearchUnavailable)
		span.SetStatus(codes.Error, string(KindSearchUnavailable))
		bspan.Close(false, string(KindSearchUnavailable))
		o.log.Warn("search phase degraded", slog.Any("error", err))
		return &search.Result{}, nil
	}
	bspan.SetCacheHit(string(prov))
	bspan.Close(true, "")
	return result, nil
}

// runCrawl executes the crawl phase. No links or no fetched pages degrade
// to an empty result.
func (o *Orchestrator) runCrawl(ctx context.Context, profile *Profile, req *Request, searchResult *search.Result) (*crawl.Result, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.crawl")
	defer span.End()
	bspan := o.bench.OpenSpan(benchmark.CategoryCrawl)

	if len(searchResult.Links) == 0 {
		o.degrade(profile, KindCrawlEmpty)
		span.SetStatus(codes.Error, string(KindCrawlEmpty))
		bspan.Close(false, string(KindCrawlEmpty))
		return &crawl.Result{}, nil
	}

	phaseCtx, cancel := context.WithTimeout(ctx, o.phaseTimeouts().Crawl)
	defer cancel()

	result, err := o.crawl.Run(phaseCtx,
		searchResult.Links,
		dictionary.Tokens(req.InstitutionName),
		crawl.ParseStrategy(req.Strategy),
		req.MaxPages,
		req.ForceRefresh)
	if err != nil {
		if canceled(ctx, err) {
			bspan.Close(false, string(KindCanceled))
			return nil, context.Cause(ctx)
		}
		o.degrade(profile, KindCrawlEmpty)
		span.SetStatus(codes.Error, string(KindCrawlEmpty))
		bspan.Close(false, string(KindCrawlEmpty))
		o.log.Warn("crawl phase degraded", slog.Any("error", err))
		return result, nil
	}
	bspan.SetCompleteness(result.SuccessRate() * 100)
	bspan.Close(true, "")
	return result, nil
}

// runExtract prepares content and executes the extraction phase.
func (o *Orchestrator) runExtract(ctx context.Context, profile *Profile, req *Request, key string, instType schema.InstitutionType, searchResult *search.Result, crawlResult *crawl.Result) (*extract.Result, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.extract")
	defer span.End()
	bspan := o.bench.OpenSpan(benchmark.CategoryExtract)

	prepared := content.Prepare(content.Input{
		Crawl:       crawlResult,
		Description: searchResult.Description,
		Snippet:     firstSnippet(searchResult),
		DirectText:  req.DirectText,
	})
	span.SetAttributes(
		attribute.String("content.source", string(prepared.Source)),
		attribute.Int("content.bytes", len(prepared.Text)),
	)

	phaseCtx, cancel := context.WithTimeout(ctx, o.phaseTimeouts().Extract)
	defer cancel()

	result, err := o.extract.Run(phaseCtx, key, req.InstitutionName, instType, prepared.Text, crawlResult, req.ForceRefresh)
	if err != nil {
		if canceled(ctx, err) {
			bspan.Close(false, string(KindCanceled))
			return nil, context.Cause(ctx)
		}
		if errors.Is(err, schema.ErrMismatch) {
			bspan.Close(false, string(KindSchemaMismatch))
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		// Phase timeout: degrade to the identity-only record.
		o.degrade(profile, KindExtractFailed)
		span.SetStatus(codes.Error, string(KindExtractFailed))
		bspan.Close(false, string(KindExtractFailed))
		return &extract.Result{
			Record: partialRecord(req.InstitutionName, instType),
			Failed: true,
		}, nil
	}
	bspan.AddAPICalls(result.APICalls)
	bspan.AddTokens(result.InputTokens, result.OutputTokens)
	bspan.AddCost(result.CostUSD)
	bspan.SetCacheHit(string(result.Provenance))
	for _, w := range result.Warnings {
		bspan.AddWarning(w)
	}
	if result.Failed {
		o.degrade(profile, KindExtractFailed)
		bspan.Close(false, string(KindExtractFailed))
	} else {
		bspan.Close(true, "")
	}
	return result, nil
}

// finish scores the profile and closes the pipeline span.
func (o *Orchestrator) finish(profile *Profile, crawlResult *crawl.Result, extractResult *extract.Result, searchResult *search.Result, span *benchmark.Span, started time.Time) {
	profile.Quality = quality.Score(profile.Record, o.signals(profile, crawlResult, extractResult, searchResult))
	profile.Elapsed = time.Since(started)

	span.SetCompleteness(profile.Quality.Score)
	span.Close(!profile.Degraded, firstKind(profile.ErrorKinds))
	o.log.Info("pipeline complete",
		slog.String("key", profile.Key),
		slog.Float64("quality", profile.Quality.Score),
		slog.Bool("degraded", profile.Degraded),
		slog.Duration("elapsed", profile.Elapsed))
}

// signals assembles the quality scorer's evidence from the phase artifacts.
func (o *Orchestrator) signals(profile *Profile, crawlResult *crawl.Result, extractResult *extract.Result, searchResult *search.Result) quality.Signals {
	sig := quality.Signals{
		HasLogo:            len(profile.Logos) > 0,
		ImageCount:         len(profile.Images),
		FacilityImageCount: len(profile.FacilityImages),
		SocialLinkCount:    socialCount(profile.SocialLinks),
	}
	for _, img := range profile.FacilityImages {
		if strings.Contains(strings.ToLower(img.Alt), "campus") ||
			strings.Contains(strings.ToLower(img.Context), "campus") {
			sig.HasCampusImage = true
			break
		}
	}
	if crawlResult != nil {
		sig.DocumentCount = len(crawlResult.Documents)
		sig.SourceCount = crawlResult.Succeeded
		sig.CrawlSuccessRate = crawlResult.SuccessRate()
		sig.TotalBytes = crawlResult.TotalBytes
	}

	phases := 0
	if searchResult != nil && len(searchResult.Links) > 0 {
		phases++
	}
	if crawlResult != nil && crawlResult.Succeeded > 0 {
		phases++
	}
	if extractResult != nil && !extractResult.Failed {
		phases++
	}
	sig.PhasesSucceeded = phases

	hits := 0.0
	total := 0.0
	if extractResult != nil {
		total++
		if extractResult.Provenance == cache.ProvenanceDirectHit || extractResult.Provenance == cache.ProvenanceSimilarityHit {
			hits++
		}
	}
	if total > 0 {
		sig.CacheHitRate = hits / total
	}
	return sig
}

// socialCount totals the social profile URLs across all platforms.
func socialCount(links map[string][]string) int {
	n := 0
	for _, urls := range links {
		n += len(urls)
	}
	return n
}

// degrade appends an error kind once and marks the profile degraded.
func (o *Orchestrator) degrade(profile *Profile, kind ErrorKind) {
	profile.Degraded = true
	for _, k := range profile.ErrorKinds {
		if k == kind {
			return
		}
	}
	profile.ErrorKinds = append(profile.ErrorKinds, kind)
}

// partialRecord is the skip-extraction result shell.
func partialRecord(name string, instType schema.InstitutionType) schema.Record {
	record := make(schema.Record)
	record.Set("name", schema.Text(name))
	record.Set("type", schema.Text(string(instType)))
	return record
}

// canceled reports whether err stems from the request's own context
// rather than a phase-local timeout.
func canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// firstSnippet returns the top link's snippet for the content preparer's
// snippet branch.
func firstSnippet(result *search.Result) string {
	if result == nil || len(result.Links) == 0 {
		return ""
	}
	return result.Links[0].Snippet
}

// firstKind renders the leading error kind for the benchmark sample.
func firstKind(kinds []ErrorKind) string {
	if len(kinds) == 0 {
		return ""
	}
	return string(kinds[0])
}
