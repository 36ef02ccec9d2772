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

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// =============================================================================
// Loader — bulk CSV corpus ingestion
// =============================================================================

// Entry is one corpus row in its post-cleaning form. Entries are what the
// snapshot store persists, so a warm start can skip CSV parsing entirely.
type Entry struct {
	Name      string
	Type      schema.InstitutionType
	Frequency int
}

// Loader feeds corpus entries into the trie and the symspell dictionary.
type Loader struct {
	trie *Trie
	sym  *SymSpell
	log  *slog.Logger
}

// NewLoader wires a loader over the structures it populates.
func NewLoader(trie *Trie, sym *SymSpell, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{trie: trie, sym: sym, log: log}
}

// Apply inserts pre-cleaned entries, e.g. from a snapshot restore.
func (l *Loader) Apply(entries []Entry) {
	for _, e := range entries {
		l.insert(e)
	}
}

func (l *Loader) insert(e Entry) {
	l.trie.Insert(e.Name, e.Type, e.Frequency)
	for _, tok := range Tokens(e.Name) {
		l.sym.Add(tok, e.Frequency)
	}
}

// LoadCSV ingests one corpus file. The first row is treated as a header
// when it contains no digits and a recognizable name column; columns named
// "name"/"institution", "type", and "frequency"/"count" are used, otherwise
// column 0 is the name. defaultType applies to rows without a type column.
//
// Outputs:
//   - []Entry: the cleaned entries inserted, for snapshotting.
//   - error: I/O or CSV syntax failure. Individual bad rows are skipped.
func (l *Loader) LoadCSV(path string, defaultType schema.InstitutionType) ([]Entry, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	nameCol, typeCol, freqCol := 0, -1, -1
	first, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	header := false
	for i, col := range first {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "institution", "institution_name":
			nameCol, header = i, true
		case "type", "institution_type":
			typeCol, header = i, true
		case "frequency", "count", "weight":
			freqCol, header = i, true
		}
	}

	var entries []Entry
	ingest := func(row []string) {
		if nameCol >= len(row) {
			return
		}
		name := CleanName(strings.TrimSpace(row[nameCol]))
		if name == "" {
			return
		}
		e := Entry{Name: name, Type: defaultType, Frequency: 1}
		if typeCol >= 0 && typeCol < len(row) {
			if t, ok := schema.ParseType(strings.ToLower(strings.TrimSpace(row[typeCol]))); ok {
				e.Type = t
			}
		}
		if freqCol >= 0 && freqCol < len(row) {
			if n, err := strconv.Atoi(strings.TrimSpace(row[freqCol])); err == nil && n > 0 {
				e.Frequency = n
			}
		}
		l.insert(e)
		entries = append(entries, e)
	}

	if !header {
		ingest(first)
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or malformed row: skip, keep loading.
			l.log.Warn("skipping corpus row", slog.String("path", path), slog.Any("error", err))
			continue
		}
		ingest(row)
	}

	l.log.Info("corpus file loaded",
		slog.String("path", path),
		slog.Int("entries", len(entries)),
		slog.Duration("elapsed", time.Since(start)))
	return entries, nil
}
