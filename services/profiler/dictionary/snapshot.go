// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dictionary

// =============================================================================
// SnapshotStore — corpus snapshot persistence
// =============================================================================
//
// Parsing and cleaning tens of thousands of CSV rows on every start is the
// slow part of dictionary construction. This store persists the cleaned
// entry list in BadgerDB under a hash of the corpus files, so a restart
// with unchanged corpora restores in one read. A changed corpus changes the
// hash, which simply misses and triggers a fresh parse; stale snapshots
// age out via TTL.

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrSnapshotMiss reports that no live snapshot exists for a corpus hash.
var ErrSnapshotMiss = errors.New("dictionary: snapshot miss")

const (
	snapshotKeyPrefix = "dict_snapshot::"
	snapshotTTL       = 7 * 24 * time.Hour

	// snapshotCodecVersion invalidates persisted snapshots when the Entry
	// encoding or the cleaning rules change.
	snapshotCodecVersion = "v1"
)

// snapshotRecord is the gob-persisted envelope.
type snapshotRecord struct {
	CodecVersion string
	CreatedAt    time.Time
	Entries      []Entry
}

// SnapshotStore persists cleaned corpus entries between restarts.
//
// Thread Safety: safe for concurrent use; BadgerDB transactions provide
// isolation.
type SnapshotStore struct {
	db  *badger.DB
	log *slog.Logger
}

// OpenSnapshotStore opens (creating if needed) the BadgerDB under dir.
func OpenSnapshotStore(dir string, log *slog.Logger) (*SnapshotStore, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logger is too chatty for a side store
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db, log: log}, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save persists entries under the corpus hash with the store TTL.
func (s *SnapshotStore) Save(corpusHash string, entries []Entry) error {
	record := snapshotRecord{
		CodecVersion: snapshotCodecVersion,
		CreatedAt:    time.Now().UTC(),
		Entries:      entries,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := []byte(snapshotKeyPrefix + corpusHash)
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, buf.Bytes()).WithTTL(snapshotTTL)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.log.Info("dictionary snapshot saved",
		slog.String("corpus_hash", shortHash(corpusHash)),
		slog.Int("entries", len(entries)),
		slog.Int("bytes", buf.Len()))
	return nil
}

// Load restores the entries saved under corpusHash.
//
// Outputs:
//   - []Entry: the snapshot contents.
//   - error: ErrSnapshotMiss when absent, expired, or written by an
//     incompatible codec; other errors indicate store corruption.
func (s *SnapshotStore) Load(corpusHash string) ([]Entry, error) {
	key := []byte(snapshotKeyPrefix + corpusHash)
	var record snapshotRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotMiss
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&record)
		})
	})
	if err != nil {
		if errors.Is(err, ErrSnapshotMiss) {
			return nil, ErrSnapshotMiss
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if record.CodecVersion != snapshotCodecVersion {
		s.log.Warn("snapshot codec mismatch, treating as miss",
			slog.String("have", record.CodecVersion),
			slog.String("want", snapshotCodecVersion))
		return nil, ErrSnapshotMiss
	}

	s.log.Info("dictionary snapshot restored",
		slog.String("corpus_hash", shortHash(corpusHash)),
		slog.Int("entries", len(record.Entries)),
		slog.Duration("age", time.Since(record.CreatedAt)))
	return record.Entries, nil
}

// CorpusHash fingerprints the corpus file set by path, size, and mtime,
// plus the codec version. Any corpus edit changes the hash.
func CorpusHash(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	fmt.Fprintf(h, "codec=%s\n", snapshotCodecVersion)
	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat corpus %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// shortHash truncates a hash for log lines.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
