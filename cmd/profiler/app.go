// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/profiler/services/profiler/benchmark"
	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/config"
	"github.com/AleutianAI/profiler/services/profiler/crawl"
	"github.com/AleutianAI/profiler/services/profiler/dictionary"
	"github.com/AleutianAI/profiler/services/profiler/extract"
	"github.com/AleutianAI/profiler/services/profiler/pipeline"
	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/schema"
	"github.com/AleutianAI/profiler/services/profiler/search"
)

// app is the assembled service graph behind every subcommand.
type app struct {
	cfg config.Config
	log *slog.Logger

	trie         *dictionary.Trie
	corrector    *dictionary.Corrector
	autocomplete *dictionary.Autocomplete
	keyer        *dictionary.Keyer

	searchCache  *cache.Store
	crawlCache   *cache.Store
	extractCache *cache.Store

	bench        *benchmark.Collector
	orchestrator *pipeline.Orchestrator

	closers []func() error
}

// logCacheStats reports per-store hit rates for this process.
func (a *app) logCacheStats() {
	for _, store := range []*cache.Store{a.searchCache, a.crawlCache, a.extractCache} {
		stats := store.Stats()
		a.log.Info("cache stats",
			slog.String("store", store.Name()),
			slog.Uint64("hits", stats.Hits),
			slog.Uint64("similar", stats.SimilarityHits),
			slog.Uint64("misses", stats.Misses),
			slog.Float64("hit_rate", stats.HitRate()))
	}
}

// Close releases resources in reverse construction order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("shutdown error", slog.Any("error", err))
		}
	}
}

// newApp builds the full graph from configuration. tracer may be nil.
func newApp(cfg config.Config, tracer trace.Tracer) (*app, error) {
	log := slog.Default()
	a := &app{cfg: cfg, log: log}

	if err := a.buildDictionary(); err != nil {
		return nil, err
	}
	if err := a.buildStores(); err != nil {
		a.Close()
		return nil, err
	}

	services, err := providers.NewServices(providers.FactoryConfig{
		SearchURL:        cfg.Providers.SearchURL,
		SearchRateLimit:  cfg.Providers.SearchRateLimit,
		SearchRateWindow: cfg.Providers.SearchRateWindow.Std(),
		CrawlerURL:       cfg.Providers.CrawlerURL,
		LLMProvider:      cfg.Providers.LLMProvider,
		LLMModel:         cfg.Providers.LLMModel,
		OllamaURL:        cfg.Providers.OllamaURL,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.orchestrator = pipeline.NewOrchestrator(
		a.keyer,
		search.New(services.Search, a.searchCache, search.DefaultMaxLinks, log),
		crawl.New(services.Crawler, a.crawlCache, cfg.Crawl.Concurrency, cfg.Crawl.DomainRate, log),
		extract.New(services.LLM, a.extractCache, cfg.Providers.LLMModel, cfg.Providers.LLMMaxTokens, cfg.Providers.LLMTemperature, log),
		a.bench,
		pipeline.Timeouts{
			Search:  cfg.Pipeline.SearchTimeout.Std(),
			Crawl:   cfg.Pipeline.CrawlTimeout.Std(),
			Extract: cfg.Pipeline.ExtractTimeout.Std(),
		},
		tracer,
		log,
	)
	return a, nil
}

// buildDictionary loads the corpus, preferring the snapshot store over
// re-parsing CSV when the corpus files are unchanged.
func (a *app) buildDictionary() error {
	a.trie = dictionary.NewTrie()
	sym := dictionary.NewSymSpell(2)
	loader := dictionary.NewLoader(a.trie, sym, a.log)

	if len(a.cfg.Dictionary.CorpusFiles) > 0 {
		if err := a.loadCorpus(loader); err != nil {
			return err
		}
	}

	a.corrector = dictionary.NewCorrector(a.trie, sym, 0)
	a.autocomplete = dictionary.NewAutocomplete(a.trie, a.corrector, nil, a.log)
	a.keyer = dictionary.NewKeyerFromTrie(a.trie)
	a.log.Info("dictionary ready",
		slog.Int("entries", a.trie.Len()),
		slog.Int("acronym_expansions", a.keyer.Expansions()))
	return nil
}

func (a *app) loadCorpus(loader *dictionary.Loader) error {
	hash, err := dictionary.CorpusHash(a.cfg.Dictionary.CorpusFiles)
	if err != nil {
		return fmt.Errorf("hash corpus: %w", err)
	}

	snapshots, err := dictionary.OpenSnapshotStore(a.cfg.Dictionary.SnapshotDir, a.log)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	a.closers = append(a.closers, snapshots.Close)

	if entries, err := snapshots.Load(hash); err == nil {
		loader.Apply(entries)
		a.log.Info("dictionary restored from snapshot", slog.Int("entries", len(entries)))
		return nil
	} else if !errors.Is(err, dictionary.ErrSnapshotMiss) {
		a.log.Warn("snapshot load failed, falling back to CSV", slog.Any("error", err))
	}

	var all []dictionary.Entry
	for _, path := range a.cfg.Dictionary.CorpusFiles {
		entries, err := loader.LoadCSV(path, schema.TypeGeneral)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		all = append(all, entries...)
	}
	if err := snapshots.Save(hash, all); err != nil {
		a.log.Warn("snapshot save failed", slog.Any("error", err))
	}
	return nil
}

func (a *app) buildStores() error {
	var err error
	a.searchCache, err = cache.Open("search", a.cfg.CacheDir("search"), a.cfg.Cache.SearchTTL.Std(), a.log,
		cache.WithThreshold(a.cfg.Cache.SimilarityThreshold))
	if err != nil {
		return err
	}
	a.crawlCache, err = cache.Open("crawl", a.cfg.CacheDir("crawl"), a.cfg.Cache.CrawlTTL.Std(), a.log,
		cache.WithoutSimilarity())
	if err != nil {
		return err
	}
	a.extractCache, err = cache.Open("extract", a.cfg.CacheDir("extract"), a.cfg.Cache.ExtractTTL.Std(), a.log,
		cache.WithoutSimilarity())
	if err != nil {
		return err
	}
	a.bench, err = benchmark.New(a.cfg.BenchmarkDir(), a.log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.bench.Close)
	return nil
}
