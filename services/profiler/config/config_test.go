// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.Concurrency != 8 || cfg.Cache.SimilarityThreshold != 0.85 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Pipeline.SearchTimeout.Std() != 10*time.Second {
		t.Errorf("search timeout = %v", cfg.Pipeline.SearchTimeout)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := `
base_dir: /var/lib/profiler
providers:
  llm_provider: ollama
  llm_model: llama3
  ollama_url: http://localhost:11434
crawl:
  concurrency: 4
  strategy: high_depth
pipeline:
  crawl_timeout: 90s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDir != "/var/lib/profiler" || cfg.Providers.LLMModel != "llama3" {
		t.Errorf("file overrides not applied: %+v", cfg)
	}
	if cfg.Crawl.Concurrency != 4 || cfg.Crawl.Strategy != "high_depth" {
		t.Errorf("crawl overrides not applied: %+v", cfg.Crawl)
	}
	if cfg.Pipeline.CrawlTimeout.Std() != 90*time.Second {
		t.Errorf("crawl timeout = %v", cfg.Pipeline.CrawlTimeout)
	}
	// Untouched knobs keep their defaults.
	if cfg.Providers.SearchRateLimit != 30 {
		t.Errorf("rate limit = %d", cfg.Providers.SearchRateLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROFILER_BASE_DIR", "/tmp/alt")
	t.Setenv("PROFILER_LLM_MODEL", "gpt-4o")
	t.Setenv("PROFILER_CRAWL_CONCURRENCY", "2")

	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDir != "/tmp/alt" || cfg.Providers.LLMModel != "gpt-4o" || cfg.Crawl.Concurrency != 2 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := `
crawl:
  strategy: frenzy
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid strategy accepted")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestCachePaths(t *testing.T) {
	cfg := Default()
	cfg.BaseDir = "/data"
	if got := cfg.CacheDir("search"); got != filepath.Join("/data", "cache", "search") {
		t.Errorf("CacheDir = %q", got)
	}
	if got := cfg.BenchmarkDir(); got != filepath.Join("/data", "benchmarks") {
		t.Errorf("BenchmarkDir = %q", got)
	}
}
