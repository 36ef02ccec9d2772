// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package benchmark records per-phase cost, latency, token, and cache
// provenance samples into an append-only session journal, with rolling
// aggregates and Prometheus mirrors.
package benchmark

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category names one benchmarked unit of work.
type Category string

const (
	CategorySearch   Category = "search"
	CategoryCrawl    Category = "crawl"
	CategoryExtract  Category = "extract"
	CategoryPipeline Category = "pipeline"
)

// Sample is one journal line. Field names are the on-disk JSONL contract.
type Sample struct {
	SessionID       string   `json:"session_id"`
	Category        Category `json:"category"`
	StartedAt       string   `json:"started_at"`
	PhaseMS         int64    `json:"phase_ms"`
	CostUSD         float64  `json:"cost_usd"`
	APICalls        int      `json:"api_calls"`
	InputTokens     int      `json:"input_tokens"`
	OutputTokens    int      `json:"output_tokens"`
	CacheHitKind    string   `json:"cache_hit_kind,omitempty"`
	Success         bool     `json:"success"`
	CompletenessPct float64  `json:"completeness_pct"`
	ErrorKind       string   `json:"error_kind,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CategoryAggregate accumulates across samples of one category.
type CategoryAggregate struct {
	Count        int            `json:"count"`
	Successes    int            `json:"successes"`
	TotalMS      int64          `json:"total_ms"`
	CostUSD      float64        `json:"cost_usd"`
	APICalls     int            `json:"api_calls"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	CacheHits    map[string]int `json:"cache_hits,omitempty"`
}

// SuccessRate returns successes/count, 0 for an empty aggregate.
func (a CategoryAggregate) SuccessRate() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.Successes) / float64(a.Count)
}

// AverageMS returns the mean span duration.
func (a CategoryAggregate) AverageMS() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.TotalMS) / float64(a.Count)
}

// Aggregates is the cross-session snapshot persisted to aggregate.json.
type Aggregates struct {
	UpdatedAt  string                         `json:"updated_at"`
	SessionID  string                         `json:"session_id"`
	Categories map[Category]CategoryAggregate `json:"categories"`
}

// Collector owns the session journal and the rolling aggregates.
//
// Thread Safety: safe for concurrent spans; journal appends and aggregate
// updates serialize on one short critical section, which also gives samples
// a total order by close time.
type Collector struct {
	sessionID string
	dir       string

	mu      sync.Mutex
	journal *os.File
	agg     Aggregates

	log *slog.Logger
	now func() time.Time
}

// New opens a collector writing under dir. The session journal is created
// immediately; prior aggregates are loaded when present so totals carry
// across restarts.
func New(dir string, log *slog.Logger) (*Collector, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create benchmark dir %s: %w", dir, err)
	}

	c := &Collector{
		sessionID: uuid.NewString(),
		dir:       dir,
		log:       log,
		now:       time.Now,
	}

	stamp := c.now().UTC().Format("2006-01-02T15:04:05Z")
	path := filepath.Join(dir, "session_"+stamp+".jsonl")
	journal, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session journal: %w", err)
	}
	c.journal = journal

	c.agg = Aggregates{Categories: make(map[Category]CategoryAggregate)}
	if data, err := os.ReadFile(filepath.Join(dir, "aggregate.json")); err == nil {
		var prior Aggregates
		if err := json.Unmarshal(data, &prior); err == nil && prior.Categories != nil {
			c.agg.Categories = prior.Categories
		}
	}
	c.agg.SessionID = c.sessionID

	log.Info("benchmark session opened",
		slog.String("session_id", c.sessionID),
		slog.String("journal", path))
	return c, nil
}

// SessionID returns the collector's session identifier.
func (c *Collector) SessionID() string { return c.sessionID }

// Close flushes aggregates and closes the journal.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeAggregateLocked()
	return c.journal.Close()
}

// Query returns a deep copy of the current aggregates.
func (c *Collector) Query() Aggregates {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := Aggregates{
		UpdatedAt:  c.agg.UpdatedAt,
		SessionID:  c.agg.SessionID,
		Categories: make(map[Category]CategoryAggregate, len(c.agg.Categories)),
	}
	for cat, agg := range c.agg.Categories {
		hits := make(map[string]int, len(agg.CacheHits))
		for k, v := range agg.CacheHits {
			hits[k] = v
		}
		agg.CacheHits = hits
		out.Categories[cat] = agg
	}
	return out
}

// =============================================================================
// Span
// =============================================================================

// Span is one open measurement. Record methods may be called from the
// owning goroutine only; Close hands the sample to the collector.
type Span struct {
	c      *Collector
	sample Sample
	start  time.Time
	closed bool
}

// OpenSpan starts measuring one unit of work.
func (c *Collector) OpenSpan(category Category) *Span {
	start := c.now()
	return &Span{
		c:     c,
		start: start,
		sample: Sample{
			SessionID: c.sessionID,
			Category:  category,
			StartedAt: start.UTC().Format(time.RFC3339Nano),
		},
	}
}

// AddCost accumulates provider cost in USD.
func (s *Span) AddCost(usd float64) { s.sample.CostUSD += usd }

// AddAPICalls accumulates outbound API call count.
func (s *Span) AddAPICalls(n int) { s.sample.APICalls += n }

// AddTokens accumulates LLM token usage.
func (s *Span) AddTokens(input, output int) {
	s.sample.InputTokens += input
	s.sample.OutputTokens += output
}

// SetCacheHit records the cache provenance of the phase result.
func (s *Span) SetCacheHit(kind string) { s.sample.CacheHitKind = kind }

// SetCompleteness records the 0-100 completeness of the phase output.
func (s *Span) SetCompleteness(pct float64) { s.sample.CompletenessPct = pct }

// AddWarning attaches a non-fatal note, e.g. dropped extraction keys.
func (s *Span) AddWarning(w string) { s.sample.Warnings = append(s.sample.Warnings, w) }

// Close finalizes the span, appends the sample to the journal, and folds
// it into the aggregates. Closing twice is a no-op.
func (s *Span) Close(success bool, errorKind string) {
	if s.closed {
		return
	}
	s.closed = true
	s.sample.PhaseMS = s.c.now().Sub(s.start).Milliseconds()
	s.sample.Success = success
	s.sample.ErrorKind = errorKind
	s.c.record(s.sample)
}

func (c *Collector) record(sample Sample) {
	status := "success"
	if !sample.Success {
		status = "failure"
	}
	cat := string(sample.Category)
	phaseDuration.WithLabelValues(cat).Observe(float64(sample.PhaseMS) / 1000)
	phaseTotal.WithLabelValues(cat, status).Inc()
	if sample.CostUSD > 0 {
		costTotal.WithLabelValues(cat).Add(sample.CostUSD)
	}
	if sample.InputTokens > 0 {
		tokensTotal.WithLabelValues("input").Add(float64(sample.InputTokens))
	}
	if sample.OutputTokens > 0 {
		tokensTotal.WithLabelValues("output").Add(float64(sample.OutputTokens))
	}
	if sample.CacheHitKind != "" {
		cacheHitsTotal.WithLabelValues(cat, sample.CacheHitKind).Inc()
	}

	line, err := json.Marshal(sample)
	if err != nil {
		c.log.Error("benchmark sample encode failed", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.journal.Write(append(line, '\n')); err != nil {
		c.log.Error("benchmark journal append failed", slog.Any("error", err))
	}

	agg := c.agg.Categories[sample.Category]
	agg.Count++
	if sample.Success {
		agg.Successes++
	}
	agg.TotalMS += sample.PhaseMS
	agg.CostUSD += sample.CostUSD
	agg.APICalls += sample.APICalls
	agg.InputTokens += sample.InputTokens
	agg.OutputTokens += sample.OutputTokens
	if sample.CacheHitKind != "" {
		if agg.CacheHits == nil {
			agg.CacheHits = make(map[string]int)
		}
		agg.CacheHits[sample.CacheHitKind]++
	}
	c.agg.Categories[sample.Category] = agg
	c.writeAggregateLocked()
}

// writeAggregateLocked rewrites aggregate.json. Caller holds c.mu.
func (c *Collector) writeAggregateLocked() {
	c.agg.UpdatedAt = c.now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(c.agg, "", "  ")
	if err != nil {
		c.log.Error("aggregate encode failed", slog.Any("error", err))
		return
	}
	path := filepath.Join(c.dir, "aggregate.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.log.Error("aggregate write failed", slog.Any("error", err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		c.log.Error("aggregate rename failed", slog.Any("error", err))
	}
}
