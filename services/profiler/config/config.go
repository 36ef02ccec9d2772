// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads profiler settings from profiler.yaml with
// environment overrides. A missing config file is not an error:
// zero-config works out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up under the base directory.
const FileName = "profiler.yaml"

// Duration unmarshals from YAML strings like "90s" or bare nanosecond
// integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration.
//
// Thread Safety: safe for concurrent reads after construction. Live
// reload delivers a fresh Config value rather than mutating one in place.
type Config struct {
	// BaseDir anchors caches, benchmarks, and dictionary snapshots.
	BaseDir string `yaml:"base_dir"`

	Dictionary DictionaryConfig `yaml:"dictionary"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Crawl      CrawlConfig      `yaml:"crawl"`
	Cache      CacheConfig      `yaml:"cache"`
}

// DictionaryConfig points at the institution corpus.
type DictionaryConfig struct {
	// CorpusFiles are CSV files loaded into the trie at startup.
	CorpusFiles []string `yaml:"corpus_files"`
	// SnapshotDir holds the BadgerDB dictionary snapshot store.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// ProvidersConfig wires the external capabilities.
type ProvidersConfig struct {
	SearchURL         string        `yaml:"search_url" validate:"omitempty,url"`
	SearchRateLimit   int           `yaml:"search_rate_limit" validate:"gte=0"`
	SearchRateWindow  Duration      `yaml:"search_rate_window"`
	CrawlerURL        string        `yaml:"crawler_url" validate:"omitempty,url"`
	LLMProvider       string        `yaml:"llm_provider" validate:"omitempty,oneof=openai ollama"`
	LLMModel          string        `yaml:"llm_model"`
	LLMMaxTokens      int           `yaml:"llm_max_tokens" validate:"gte=0"`
	LLMTemperature    float64       `yaml:"llm_temperature" validate:"gte=0,lte=2"`
	OllamaURL         string        `yaml:"ollama_url" validate:"omitempty,url"`
}

// PipelineConfig carries the per-phase timeouts.
type PipelineConfig struct {
	SearchTimeout  Duration `yaml:"search_timeout"`
	CrawlTimeout   Duration `yaml:"crawl_timeout"`
	ExtractTimeout Duration `yaml:"extract_timeout"`
}

// CrawlConfig tunes the crawl phase.
type CrawlConfig struct {
	Concurrency int     `yaml:"concurrency" validate:"gte=0,lte=64"`
	DomainRate  float64 `yaml:"domain_rate" validate:"gte=0"`
	Strategy    string  `yaml:"strategy" validate:"omitempty,oneof=equal priority_based high_links high_depth"`
	MaxPages    int     `yaml:"max_pages" validate:"gte=0"`
}

// CacheConfig tunes cache behavior.
type CacheConfig struct {
	SearchTTL  Duration `yaml:"search_ttl"`
	CrawlTTL   Duration `yaml:"crawl_ttl"`
	ExtractTTL Duration `yaml:"extract_ttl"`
	// SimilarityThreshold gates fuzzy search-cache hits.
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
}

// Default returns the zero-config settings.
func Default() Config {
	return Config{
		BaseDir: ".profiler",
		Dictionary: DictionaryConfig{
			SnapshotDir: filepath.Join(".profiler", "dictionary"),
		},
		Providers: ProvidersConfig{
			SearchRateLimit:  30,
			SearchRateWindow: Duration(time.Minute),
			LLMProvider:      "openai",
			LLMModel:         "gpt-4o-mini",
			LLMTemperature:   0,
		},
		Pipeline: PipelineConfig{
			SearchTimeout:  Duration(10 * time.Second),
			CrawlTimeout:   Duration(60 * time.Second),
			ExtractTimeout: Duration(30 * time.Second),
		},
		Crawl: CrawlConfig{
			Concurrency: 8,
			DomainRate:  2,
			Strategy:    "priority_based",
		},
		Cache: CacheConfig{
			SearchTTL:           Duration(7 * 24 * time.Hour),
			CrawlTTL:            Duration(24 * time.Hour),
			ExtractTTL:          Duration(7 * 24 * time.Hour),
			SimilarityThreshold: 0.85,
		},
	}
}

// CacheDir returns the directory for one cache store.
func (c *Config) CacheDir(name string) string {
	return filepath.Join(c.BaseDir, "cache", name)
}

// BenchmarkDir returns the benchmark journal directory.
func (c *Config) BenchmarkDir() string {
	return filepath.Join(c.BaseDir, "benchmarks")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the config file at path, falling back to defaults when it
// does not exist, then applies environment overrides and validates.
//
// Outputs:
//   - Config: merged settings.
//   - error: unreadable or invalid YAML, or constraint violations.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays PROFILER_* environment variables onto the config.
// Only deployment-facing knobs have env forms; tunables live in the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PROFILER_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("PROFILER_SEARCH_URL"); v != "" {
		cfg.Providers.SearchURL = v
	}
	if v := os.Getenv("PROFILER_CRAWLER_URL"); v != "" {
		cfg.Providers.CrawlerURL = v
	}
	if v := os.Getenv("PROFILER_LLM_PROVIDER"); v != "" {
		cfg.Providers.LLMProvider = v
	}
	if v := os.Getenv("PROFILER_LLM_MODEL"); v != "" {
		cfg.Providers.LLMModel = v
	}
	if v := os.Getenv("PROFILER_OLLAMA_URL"); v != "" {
		cfg.Providers.OllamaURL = v
	}
	if v := os.Getenv("PROFILER_CRAWL_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawl.Concurrency = n
		}
	}
}
