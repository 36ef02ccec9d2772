// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/profiler/services/profiler/benchmark"
	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/crawl"
	"github.com/AleutianAI/profiler/services/profiler/dictionary"
	"github.com/AleutianAI/profiler/services/profiler/extract"
	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
	"github.com/AleutianAI/profiler/services/profiler/search"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSearch struct {
	results []providers.SearchResult
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, query string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeCrawler struct {
	err error
}

func (f *fakeCrawler) Fetch(ctx context.Context, url string, opts providers.CrawlOptions) (*providers.CrawlArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &providers.CrawlArtifact{
		URL:      url,
		Status:   200,
		Markdown: providers.Markdown{PrimaryContent: "Example University is a private research university. It was founded in 1850."},
		Metadata: map[string]string{"title": "Example University"},
		Images: []providers.Image{
			{Src: "/img/logo.png", Alt: "Example University logo", Width: 120, Height: 80, DOMLocation: "header"},
		},
		SizeBytes: 4096,
	}, nil
}

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, req providers.LLMRequest) (*providers.LLMResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &providers.LLMResult{Text: f.text, InputTokens: 200, OutputTokens: 80, CostUSD: 0.002}, nil
}

// =============================================================================
// Harness
// =============================================================================

func newOrchestrator(t *testing.T, searchProv providers.SearchProvider, crawler providers.CrawlerEngine, llm providers.LLMClient) *Orchestrator {
	t.Helper()
	base := t.TempDir()

	trie := dictionary.NewTrie()
	trie.Insert("Example University", schema.TypeUniversity, 10)
	keyer := dictionary.NewKeyerFromTrie(trie)

	searchCache, err := cache.Open("search", base+"/cache/search", 7*24*time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	crawlCache, err := cache.Open("crawl", base+"/cache/crawl", 24*time.Hour, nil, cache.WithoutSimilarity())
	if err != nil {
		t.Fatal(err)
	}
	extractCache, err := cache.Open("extract", base+"/cache/extract", 7*24*time.Hour, nil, cache.WithoutSimilarity())
	if err != nil {
		t.Fatal(err)
	}
	bench, err := benchmark.New(base+"/benchmarks", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bench.Close() })

	return NewOrchestrator(
		keyer,
		search.New(searchProv, searchCache, 15, nil),
		crawl.New(crawler, crawlCache, 4, 1000, nil),
		extract.New(llm, extractCache, "gpt-4o-mini", 0, 0, nil),
		bench,
		Timeouts{},
		nil,
		nil,
	)
}

func goodSearch() *fakeSearch {
	return &fakeSearch{results: []providers.SearchResult{
		{URL: "https://www.example.edu/", Title: "Example University", Snippet: "A private research university.", Domain: "www.example.edu"},
		{URL: "https://www.example.edu/about", Title: "About", Snippet: "Founded 1850.", Domain: "www.example.edu"},
	}}
}

// =============================================================================
// Tests
// =============================================================================

func TestRunFullPipeline(t *testing.T) {
	llm := &fakeLLM{text: `{"name": "Example University", "founded": "1850", "website": "https://www.example.edu"}`}
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, llm)

	profile, err := orc.Run(context.Background(), &Request{InstitutionName: "Example University"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if profile.Degraded || len(profile.ErrorKinds) != 0 {
		t.Errorf("degraded=%v kinds=%v", profile.Degraded, profile.ErrorKinds)
	}
	if profile.Type != schema.TypeUniversity {
		t.Errorf("type = %v", profile.Type)
	}
	if !profile.Record.Populated("founded") {
		t.Error("extracted field missing")
	}
	if len(profile.Logos) == 0 {
		t.Error("logo candidates not merged")
	}
	if profile.Quality.Score <= 0 || profile.Quality.Rating == "" {
		t.Errorf("quality = %+v", profile.Quality)
	}
}

func TestRunDegradedSearchSkipsCrawl(t *testing.T) {
	llm := &fakeLLM{text: `{"name": "Example University"}`}
	orc := newOrchestrator(t, &fakeSearch{err: providers.ErrUnavailable}, &fakeCrawler{}, llm)

	profile, err := orc.Run(context.Background(), &Request{InstitutionName: "Example University"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !profile.Degraded {
		t.Fatal("not degraded")
	}
	want := []ErrorKind{KindSearchUnavailable, KindCrawlEmpty}
	if len(profile.ErrorKinds) != len(want) {
		t.Fatalf("ErrorKinds = %v, want %v", profile.ErrorKinds, want)
	}
	for i, kind := range want {
		if profile.ErrorKinds[i] != kind {
			t.Errorf("ErrorKinds[%d] = %v, want %v", i, profile.ErrorKinds[i], kind)
		}
	}
	// The record still names its subject.
	if !profile.Record.Populated("name") {
		t.Error("record missing identity")
	}
}

func TestRunExtractFailureDegrades(t *testing.T) {
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, &fakeLLM{err: providers.ErrUnavailable})

	profile, err := orc.Run(context.Background(), &Request{InstitutionName: "Example University"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !profile.Degraded || len(profile.ErrorKinds) != 1 || profile.ErrorKinds[0] != KindExtractFailed {
		t.Errorf("degraded=%v kinds=%v", profile.Degraded, profile.ErrorKinds)
	}
	// Crawl-derived fields survive the extraction failure.
	if got, _ := profile.Record["website"].AsText(); got != "https://www.example.edu" {
		t.Errorf("website = %q", got)
	}
}

func TestRunSkipExtraction(t *testing.T) {
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, &fakeLLM{err: providers.ErrUnavailable})

	profile, err := orc.Run(context.Background(), &Request{
		InstitutionName: "Example University",
		SkipExtraction:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !profile.Partial {
		t.Error("Partial not set")
	}
	if profile.Degraded {
		t.Errorf("degraded without extraction: %v", profile.ErrorKinds)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, &fakeLLM{text: "{}"})

	cases := []*Request{
		{},
		{InstitutionName: "X"},
		{InstitutionName: "Example", InstitutionType: "museum"},
		{InstitutionName: "Example", Strategy: "yolo"},
		{InstitutionName: "Example", MaxPages: -1},
	}
	for _, req := range cases {
		if _, err := orc.Run(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Run(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestRunCanceledPropagates(t *testing.T) {
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, &fakeLLM{text: "{}"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orc.Run(ctx, &Request{InstitutionName: "Example University"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRequestResolveType(t *testing.T) {
	req := &Request{InstitutionName: "Massachusetts General Hospital"}
	if got := req.ResolveType(); got != schema.TypeHospital {
		t.Errorf("inferred type = %v", got)
	}
	req.InstitutionType = "bank"
	if got := req.ResolveType(); got != schema.TypeBank {
		t.Errorf("override type = %v", got)
	}
}

// Phase durations never exceed the pipeline duration.
func TestBenchmarkConservation(t *testing.T) {
	llm := &fakeLLM{text: `{"name": "Example University"}`}
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, llm)

	if _, err := orc.Run(context.Background(), &Request{InstitutionName: "Example University"}); err != nil {
		t.Fatal(err)
	}
	agg := orc.bench.Query()
	var phaseMS, pipelineMS int64
	for category, a := range agg.Categories {
		if category == benchmark.CategoryPipeline {
			pipelineMS = a.TotalMS
			continue
		}
		phaseMS += a.TotalMS
	}
	if phaseMS > pipelineMS {
		t.Errorf("phase total %vms exceeds pipeline %vms", phaseMS, pipelineMS)
	}
}

func TestSetTimeouts(t *testing.T) {
	llm := &fakeLLM{text: `{"name": "Example University"}`}
	orc := newOrchestrator(t, goodSearch(), &fakeCrawler{}, llm)

	orc.SetTimeouts(Timeouts{Search: 2 * time.Second})
	got := orc.phaseTimeouts()
	if got.Search != 2*time.Second {
		t.Errorf("Search = %v, want 2s", got.Search)
	}
	if got.Crawl != DefaultCrawlTimeout || got.Extract != DefaultExtractTimeout {
		t.Errorf("zero fields not defaulted: %+v", got)
	}

	if _, err := orc.Run(context.Background(), &Request{InstitutionName: "Example University"}); err != nil {
		t.Fatalf("Run after SetTimeouts: %v", err)
	}
}
