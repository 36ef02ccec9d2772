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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeCSV(t, "name,type,frequency\n"+
		"Harvard University,university,90\n"+
		"\"First Example Bank, National Association\",bank,5\n"+
		",,3\n")

	trie := NewTrie()
	sym := NewSymSpell(2)
	entries, err := NewLoader(trie, sym, nil).LoadCSV(path, schema.TypeGeneral)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (empty row skipped)", len(entries))
	}
	meta, ok := trie.Lookup("first example bank")
	if !ok {
		t.Fatal("cleaned bank name not in trie")
	}
	if meta.Type != schema.TypeBank || meta.Frequency != 5 {
		t.Errorf("meta = %+v", meta)
	}
	if !sym.Contains("harvard") {
		t.Error("symspell missing corpus token")
	}
}

func TestLoadCSVHeaderless(t *testing.T) {
	path := writeCSV(t, "General Hospital\nCity Clinic\n")

	trie := NewTrie()
	sym := NewSymSpell(2)
	entries, err := NewLoader(trie, sym, nil).LoadCSV(path, schema.TypeHospital)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	meta, _ := trie.Lookup("general hospital")
	if meta.Type != schema.TypeHospital {
		t.Errorf("default type not applied: %+v", meta)
	}
}

func TestLoadCSVFixtureCorpus(t *testing.T) {
	trie := NewTrie()
	sym := NewSymSpell(2)
	entries, err := NewLoader(trie, sym, nil).LoadCSV(
		filepath.Join("..", "..", "..", "test", "fixtures", "institutions.csv"),
		schema.TypeGeneral)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 15 {
		t.Fatalf("entries = %d, want 15", len(entries))
	}

	meta, ok := trie.Lookup("jpmorgan chase bank")
	if !ok {
		t.Fatal("comma-suffixed bank name not cleaned for the trie")
	}
	if meta.Type != schema.TypeBank || meta.Frequency != 66 {
		t.Errorf("meta = %+v", meta)
	}

	// Corporate designators are stripped before insertion.
	if _, ok := trie.Lookup("bank of america"); !ok {
		t.Error("corporation suffix not stripped")
	}

	// Diacritics fold into the lookup form.
	if _, ok := trie.Lookup("ecole polytechnique federale de lausanne"); !ok {
		t.Error("accented name not folded")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, err := OpenSnapshotStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	entries := []Entry{
		{Name: "Harvard University", Type: schema.TypeUniversity, Frequency: 90},
		{Name: "First Example Bank", Type: schema.TypeBank, Frequency: 5},
	}
	if err := store.Save("hash-a", entries); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load("hash-a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Harvard University" || got[1].Frequency != 5 {
		t.Errorf("restored = %+v", got)
	}

	if _, err := store.Load("hash-b"); !errors.Is(err, ErrSnapshotMiss) {
		t.Errorf("unknown hash err = %v, want ErrSnapshotMiss", err)
	}
}

func TestCorpusHashChangesWithContent(t *testing.T) {
	path := writeCSV(t, "name\nA University\n")
	h1, err := CorpusHash([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("name\nA University\nB College\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h2, err := CorpusHash([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("hash unchanged after corpus edit")
	}
}
