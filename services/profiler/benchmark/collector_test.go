// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readJournal(t *testing.T, dir string) []Sample {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var samples []Sample
	for _, de := range entries {
		if !strings.HasPrefix(de.Name(), "session_") || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, de.Name()))
		if err != nil {
			t.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var s Sample
			if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
				t.Fatalf("bad journal line %q: %v", scanner.Text(), err)
			}
			samples = append(samples, s)
		}
		f.Close()
	}
	return samples
}

func TestSpanJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	span := c.OpenSpan(CategorySearch)
	span.AddAPICalls(1)
	span.AddCost(0.002)
	span.SetCacheHit("direct_hit")
	span.SetCompleteness(80)
	span.Close(true, "")

	span = c.OpenSpan(CategoryExtract)
	span.AddTokens(1200, 400)
	span.AddWarning("dropped key: made_up")
	span.Close(false, "extract_failed")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	samples := readJournal(t, dir)
	if len(samples) != 2 {
		t.Fatalf("journal has %d samples, want 2", len(samples))
	}
	first, second := samples[0], samples[1]
	if first.Category != CategorySearch || !first.Success || first.CacheHitKind != "direct_hit" {
		t.Errorf("first sample = %+v", first)
	}
	if first.SessionID != c.SessionID() {
		t.Errorf("session id mismatch: %q vs %q", first.SessionID, c.SessionID())
	}
	if second.Category != CategoryExtract || second.Success || second.ErrorKind != "extract_failed" {
		t.Errorf("second sample = %+v", second)
	}
	if second.InputTokens != 1200 || second.OutputTokens != 400 {
		t.Errorf("tokens = %d/%d", second.InputTokens, second.OutputTokens)
	}
	if len(second.Warnings) != 1 {
		t.Errorf("warnings = %v", second.Warnings)
	}
}

func TestAggregatesFoldAndPersist(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		span := c.OpenSpan(CategoryCrawl)
		span.AddAPICalls(2)
		span.Close(i != 2, "")
	}

	agg := c.Query()
	crawl := agg.Categories[CategoryCrawl]
	if crawl.Count != 3 || crawl.Successes != 2 || crawl.APICalls != 6 {
		t.Errorf("crawl aggregate = %+v", crawl)
	}
	if rate := crawl.SuccessRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("success rate = %v", rate)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	// Aggregates survive into the next session.
	c2, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	carried := c2.Query().Categories[CategoryCrawl]
	if carried.Count != 3 {
		t.Errorf("carried count = %d, want 3", carried.Count)
	}

	// aggregate.json is valid JSON on disk.
	data, err := os.ReadFile(filepath.Join(dir, "aggregate.json"))
	if err != nil {
		t.Fatal(err)
	}
	var onDisk Aggregates
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("aggregate.json: %v", err)
	}
}

func TestSpanDoubleCloseIsNoop(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	span := c.OpenSpan(CategoryPipeline)
	span.Close(true, "")
	span.Close(false, "should_not_record")

	agg := c.Query().Categories[CategoryPipeline]
	if agg.Count != 1 || agg.Successes != 1 {
		t.Errorf("aggregate after double close = %+v", agg)
	}
}

func TestQueryReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	span := c.OpenSpan(CategorySearch)
	span.SetCacheHit("fresh")
	span.Close(true, "")

	agg := c.Query()
	agg.Categories[CategorySearch] = CategoryAggregate{Count: 99}
	if c.Query().Categories[CategorySearch].Count == 99 {
		t.Error("Query exposed internal state")
	}
}
