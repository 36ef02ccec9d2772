// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrMiss reports that no live entry exists for a key. Internal to the
// pipeline: a miss drives a fresh provider call, never an error result.
var ErrMiss = errors.New("cache: miss")

// Provenance records how a cached value was produced.
type Provenance string

const (
	ProvenanceFresh         Provenance = "fresh"
	ProvenanceDirectHit     Provenance = "direct_hit"
	ProvenanceSimilarityHit Provenance = "similarity_hit"
	ProvenanceStaleRefresh  Provenance = "stale_refresh"
)

// entryFile is the on-disk JSON envelope, one file per entry.
type entryFile struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	CreatedAt  int64           `json:"created_at_epoch_s"`
	TTLSeconds int64           `json:"ttl_s"`
	Provenance Provenance      `json:"provenance"`
}

// indexEntry is the in-memory view of one file, enough to answer expiry
// and similarity questions without touching disk.
type indexEntry struct {
	key       string
	createdAt time.Time
	ttl       time.Duration
}

func (e indexEntry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Stats are cumulative per-store counters.
type Stats struct {
	Hits           uint64 `json:"hits"`
	SimilarityHits uint64 `json:"similarity_hits"`
	Misses         uint64 `json:"misses"`
	Puts           uint64 `json:"puts"`
	Quarantined    uint64 `json:"quarantined"`
}

// HitRate returns the fraction of lookups answered from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.SimilarityHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits+s.SimilarityHits) / float64(total)
}

// Store is one file-backed cache instance (search, crawl, or extract).
//
// Thread Safety: safe for concurrent use. Reads share an RWMutex read
// lock; puts and sweeps take the write lock briefly. Files are written via
// temp-file rename so a crash never leaves a half-written entry.
type Store struct {
	name      string
	dir       string
	ttl       time.Duration
	fuzzy     bool
	threshold float64

	mu    sync.RWMutex
	index map[string]indexEntry // file base name → entry
	stats Stats

	group singleflight.Group
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithoutSimilarity disables the fuzzy-match fallback. The crawl cache is
// keyed by exact URL and must not fuzzy-match.
func WithoutSimilarity() Option {
	return func(s *Store) { s.fuzzy = false }
}

// WithThreshold overrides the similarity acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Store) { s.threshold = threshold }
}

// WithClock injects a time source for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates or reopens the cache at dir. Existing entry files are
// scanned into the index; unreadable files are quarantined immediately.
func Open(name, dir string, ttl time.Duration, log *slog.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	s := &Store{
		name:      name,
		dir:       dir,
		ttl:       ttl,
		fuzzy:     true,
		threshold: DefaultThreshold,
		index:     make(map[string]indexEntry),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	return s, nil
}

// scan rebuilds the index from the directory contents.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan cache dir %s: %w", s.dir, err)
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		ef, err := s.readFile(de.Name())
		if err != nil {
			s.quarantine(de.Name(), err)
			continue
		}
		s.index[de.Name()] = indexEntry{
			key:       ef.Key,
			createdAt: time.Unix(ef.CreatedAt, 0),
			ttl:       time.Duration(ef.TTLSeconds) * time.Second,
		}
	}
	s.log.Debug("cache opened",
		slog.String("cache", s.name),
		slog.Int("entries", len(s.index)))
	return nil
}

// fileName derives the entry file name: first 16 hex chars of the key's
// SHA-256.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16] + ".json"
}

// splitKey separates the fuzzy-matched name segment from the exact-match
// remainder of a pipe-joined cache key. Keys without a pipe (crawl URLs)
// are all name.
func splitKey(key string) (name, rest string) {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i], key[i:]
	}
	return key, ""
}

func (s *Store) readFile(base string) (entryFile, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, base))
	if err != nil {
		return entryFile{}, err
	}
	var ef entryFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return entryFile{}, fmt.Errorf("corrupt cache file: %w", err)
	}
	if ef.Key == "" || ef.TTLSeconds <= 0 {
		return entryFile{}, errors.New("corrupt cache file: missing key or ttl")
	}
	return ef, nil
}

// quarantine renames a corrupt file with a .bad suffix so it stops
// matching and can be inspected later. Caller holds no lock or the write
// lock; index bookkeeping is the caller's job.
func (s *Store) quarantine(base string, cause error) {
	s.stats.Quarantined++
	bad := filepath.Join(s.dir, base+".bad")
	if err := os.Rename(filepath.Join(s.dir, base), bad); err != nil {
		s.log.Warn("cache quarantine rename failed",
			slog.String("cache", s.name),
			slog.String("file", base),
			slog.Any("error", err))
		return
	}
	s.log.Warn("cache file quarantined",
		slog.String("cache", s.name),
		slog.String("file", base),
		slog.Any("cause", cause))
}

// Get looks up key: exact match first, then (when enabled) the best
// similarity match at or above the threshold among live entries.
//
// Outputs:
//   - json.RawMessage: the cached value.
//   - Provenance: direct_hit or similarity_hit.
//   - error: ErrMiss when nothing matches.
func (s *Store) Get(key string) (json.RawMessage, Provenance, error) {
	base := fileName(key)
	now := s.now()

	s.mu.RLock()
	entry, exact := s.index[base]
	var fuzzyBase string
	var fuzzyScore float64
	if (!exact || entry.expired(now)) && s.fuzzy {
		name, rest := splitKey(key)
		for candidateBase, candidate := range s.index {
			if candidate.expired(now) {
				continue
			}
			// Only the name segment is fuzzy; type and option segments
			// must agree exactly or the cached value answers a different
			// question.
			candidateName, candidateRest := splitKey(candidate.key)
			if candidateRest != rest {
				continue
			}
			score := Similarity(name, candidateName)
			if score >= s.threshold && score > fuzzyScore {
				fuzzyBase, fuzzyScore = candidateBase, score
			}
		}
	}
	s.mu.RUnlock()

	if exact && !entry.expired(now) {
		ef, err := s.readFile(base)
		if err == nil {
			s.recordHit(&s.stats.Hits)
			return ef.Value, ProvenanceDirectHit, nil
		}
		s.dropCorrupt(base, err)
	}

	if fuzzyBase != "" {
		ef, err := s.readFile(fuzzyBase)
		if err == nil {
			s.log.Debug("cache similarity hit",
				slog.String("cache", s.name),
				slog.String("key", key),
				slog.String("matched", ef.Key),
				slog.Float64("score", fuzzyScore))
			s.recordHit(&s.stats.SimilarityHits)
			return ef.Value, ProvenanceSimilarityHit, nil
		}
		s.dropCorrupt(fuzzyBase, err)
	}

	s.recordHit(&s.stats.Misses)
	return nil, "", ErrMiss
}

func (s *Store) recordHit(counter *uint64) {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
}

func (s *Store) dropCorrupt(base string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, present := s.index[base]; present {
		delete(s.index, base)
		s.quarantine(base, cause)
	}
}

// Put stores value under key with the store TTL.
func (s *Store) Put(key string, value json.RawMessage) error {
	return s.PutTTL(key, value, s.ttl)
}

// PutTTL stores value under key with an explicit TTL.
func (s *Store) PutTTL(key string, value json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	ef := entryFile{
		Key:        key,
		Value:      value,
		CreatedAt:  now.Unix(),
		TTLSeconds: int64(ttl / time.Second),
		Provenance: ProvenanceFresh,
	}
	data, err := json.Marshal(ef)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	base := fileName(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, base)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}

	s.index[base] = indexEntry{
		key:       key,
		createdAt: time.Unix(now.Unix(), 0),
		ttl:       ttl,
	}
	s.stats.Puts++
	return nil
}

// Sweep removes expired entries and returns how many were deleted.
// Invoked on startup and periodically by the owner.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for base, entry := range s.index {
		if !entry.expired(now) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, base)); err != nil && !os.IsNotExist(err) {
			s.log.Warn("cache sweep remove failed",
				slog.String("cache", s.name),
				slog.String("file", base),
				slog.Any("error", err))
			continue
		}
		delete(s.index, base)
		removed++
	}
	if removed > 0 {
		s.log.Debug("cache swept",
			slog.String("cache", s.name),
			slog.Int("removed", removed))
	}
	return removed
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Name returns the store's instance name.
func (s *Store) Name() string { return s.name }

// GetOrFill resolves key through the cache, deduplicating concurrent work
// on the same key: the second caller blocks on the first's fill rather
// than launching its own.
//
// Inputs:
//   - force: bypass the read path; the fill result still populates the cache.
//   - fill: producer invoked on miss. Its error aborts without caching, so
//     a canceled context never writes a partial entry.
//
// Outputs mirror Get, with ProvenanceFresh (or ProvenanceStaleRefresh when
// an expired entry existed) for filled values.
func (s *Store) GetOrFill(ctx context.Context, key string, force bool, fill func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, Provenance, error) {
	if !force {
		if value, prov, err := s.Get(key); err == nil {
			return value, prov, nil
		}
	}

	base := fileName(key)
	s.mu.RLock()
	stale, hadEntry := s.index[base]
	s.mu.RUnlock()
	refreshing := hadEntry && stale.expired(s.now())

	type filled struct {
		value json.RawMessage
		prov  Provenance
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(key, value); err != nil {
			s.log.Warn("cache put failed",
				slog.String("cache", s.name),
				slog.Any("error", err))
		}
		prov := ProvenanceFresh
		if refreshing {
			prov = ProvenanceStaleRefresh
		}
		return filled{value: value, prov: prov}, nil
	})
	if err != nil {
		return nil, "", err
	}
	f := v.(filled)
	return f.value, f.prov, nil
}
