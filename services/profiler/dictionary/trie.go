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
	"sort"

	"github.com/AleutianAI/profiler/services/profiler/schema"
)

// =============================================================================
// Trie — prefix index of institution names
// =============================================================================
//
// Keys are normalized names (see Normalize); terminal nodes keep the
// original casing, an institution type, and a frequency weight for ranking.
// Insertion happens only during startup corpus loading. After that the
// structure is read-only and safe for unsynchronized concurrent lookups.

// Metadata is the terminal payload for one institution.
type Metadata struct {
	// Original preserves the corpus casing shown to users.
	Original string
	// Type is empty when the corpus row carried no classification.
	Type schema.InstitutionType
	// Frequency is a positive ranking weight.
	Frequency int
}

// Suggestion is one ranked prefix-search result.
type Suggestion struct {
	Name       string
	Normalized string
	Type       schema.InstitutionType
	Frequency  int
}

type trieNode struct {
	children map[rune]*trieNode
	terminal bool
	meta     Metadata
}

// Trie is the institution prefix index.
//
// Thread Safety: Insert must not run concurrently with anything; all read
// operations are safe concurrently once loading is done.
type Trie struct {
	root *trieNode
	size int
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{}}
}

// Len returns the number of distinct normalized names stored.
func (t *Trie) Len() int { return t.size }

// Insert adds name under its normalized form. Re-inserting the same
// normalized name keeps the higher frequency; the earlier institution type
// wins unless it was empty and the new one is not. Empty normalized names
// are ignored.
func (t *Trie) Insert(name string, typ schema.InstitutionType, frequency int) {
	normalized := Normalize(name)
	if normalized == "" {
		return
	}
	if frequency < 1 {
		frequency = 1
	}

	node := t.root
	for _, r := range normalized {
		if node.children == nil {
			node.children = make(map[rune]*trieNode)
		}
		child, ok := node.children[r]
		if !ok {
			child = &trieNode{}
			node.children[r] = child
		}
		node = child
	}

	if !node.terminal {
		node.terminal = true
		node.meta = Metadata{Original: name, Type: typ, Frequency: frequency}
		t.size++
		return
	}
	if frequency > node.meta.Frequency {
		node.meta.Frequency = frequency
	}
	if node.meta.Type == "" && typ != "" {
		node.meta.Type = typ
	}
}

func (t *Trie) walkTo(normalized string) *trieNode {
	node := t.root
	for _, r := range normalized {
		child, ok := node.children[r]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// Contains reports whether the normalized form of name is a stored entry.
func (t *Trie) Contains(name string) bool {
	node := t.walkTo(Normalize(name))
	return node != nil && node.terminal
}

// Lookup returns the metadata stored under the normalized form of name.
func (t *Trie) Lookup(name string) (Metadata, bool) {
	node := t.walkTo(Normalize(name))
	if node == nil || !node.terminal {
		return Metadata{}, false
	}
	return node.meta, true
}

// Suggest collects every entry under prefix, ordered by descending
// frequency then ascending normalized name, and returns the top k.
// Input is case-insensitive; output preserves original casing.
func (t *Trie) Suggest(prefix string, k int) []Suggestion {
	if k <= 0 {
		return nil
	}
	normalized := Normalize(prefix)
	start := t.walkTo(normalized)
	if start == nil {
		return nil
	}

	var results []Suggestion
	var descend func(node *trieNode, normalized string)
	descend = func(node *trieNode, normalized string) {
		if node.terminal {
			results = append(results, Suggestion{
				Name:       node.meta.Original,
				Normalized: normalized,
				Type:       node.meta.Type,
				Frequency:  node.meta.Frequency,
			})
		}
		// Child order does not matter; the final sort is total.
		for r, child := range node.children {
			descend(child, normalized+string(r))
		}
	}
	descend(start, normalized)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Frequency != results[j].Frequency {
			return results[i].Frequency > results[j].Frequency
		}
		return results[i].Normalized < results[j].Normalized
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Walk visits every entry in unspecified order. Used for snapshot export
// and abbreviation-table construction.
func (t *Trie) Walk(visit func(normalized string, meta Metadata)) {
	var descend func(node *trieNode, normalized string)
	descend = func(node *trieNode, normalized string) {
		if node.terminal {
			visit(normalized, node.meta)
		}
		for r, child := range node.children {
			descend(child, normalized+string(r))
		}
	}
	descend(t.root, "")
}
