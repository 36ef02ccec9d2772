// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package content assembles the bounded text payload the extractor
// receives. Upstream phases may deliver anything from a full multi-page
// crawl to a one-line snippet; the preparer picks the richest available
// source and enforces its budget with boundary-aware truncation.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/AleutianAI/profiler/services/profiler/crawl"
)

// Per-source character budgets.
const (
	// SectionCap bounds each per-page section of a crawl payload.
	SectionCap = 2000
	// CrawlCap bounds the assembled multi-page payload.
	CrawlCap = 12000
	// DescriptionCap bounds a search-phase description payload.
	DescriptionCap = 8000
	// SnippetCap bounds a bare-snippet payload.
	SnippetCap = 4000
	// DirectCap bounds caller-supplied text.
	DirectCap = 6000
)

// boundarySlack is the fraction of a budget within which a sentence or
// paragraph boundary is preferred over a hard cut.
const boundarySlack = 0.10

// Source tags which upstream artifact fed the payload.
type Source string

const (
	SourceCrawl       Source = "crawl"
	SourceDescription Source = "description"
	SourceSnippet     Source = "snippet"
	SourceDirect      Source = "direct"
	SourceEmpty       Source = "empty"
)

// Input is everything upstream may have produced for one request.
type Input struct {
	Crawl       *crawl.Result
	Description string
	Snippet     string
	DirectText  string
}

// Prepared is the extractor-ready payload.
type Prepared struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
	// Pages counts crawl sections included; zero for other sources.
	Pages int `json:"pages"`
}

// Prepare selects the richest available source in priority order and
// bounds it. An Input with nothing usable yields SourceEmpty with empty
// text; the extractor still runs so the caller gets a degraded record
// rather than nothing.
func Prepare(in Input) Prepared {
	if in.Crawl != nil && len(in.Crawl.Pages) > 0 {
		text, pages := assembleCrawl(in.Crawl)
		if text != "" {
			return Prepared{Text: text, Source: SourceCrawl, Pages: pages}
		}
	}
	if desc := strings.TrimSpace(in.Description); isMultiParagraph(desc) {
		return Prepared{Text: Truncate(desc, DescriptionCap), Source: SourceDescription}
	}
	if snip := strings.TrimSpace(in.Snippet); snip != "" {
		return Prepared{Text: Truncate(snip, SnippetCap), Source: SourceSnippet}
	}
	if direct := strings.TrimSpace(in.DirectText); direct != "" {
		return Prepared{Text: Truncate(direct, DirectCap), Source: SourceDirect}
	}
	return Prepared{Source: SourceEmpty}
}

// assembleCrawl concatenates per-page sections with attribution headers,
// each section bounded, the whole bounded.
func assembleCrawl(result *crawl.Result) (string, int) {
	var b strings.Builder
	pages := 0
	for i, page := range result.Pages {
		section := pageSection(&page)
		if section == "" {
			continue
		}
		header := fmt.Sprintf("[page %d: %s]\n", i+1, page.Artifact.URL)
		if b.Len() > 0 {
			header = "\n\n" + header
		}
		if b.Len()+len(header) >= CrawlCap {
			break
		}
		remaining := CrawlCap - b.Len() - len(header)
		if remaining < SectionCap {
			section = Truncate(section, remaining)
			if section == "" {
				break
			}
		}
		b.WriteString(header)
		b.WriteString(section)
		pages++
	}
	return b.String(), pages
}

// pageSection renders one page as title, primary markdown, and compact
// JSON-LD, bounded by SectionCap.
func pageSection(page *crawl.Page) string {
	var parts []string
	if title := page.Artifact.Title(); title != "" {
		parts = append(parts, title)
	}
	if md := strings.TrimSpace(page.Artifact.Markdown.PrimaryContent); md != "" {
		parts = append(parts, md)
	}
	if ld := compactStructuredData(page.Artifact.StructuredData); ld != "" {
		parts = append(parts, ld)
	}
	return Truncate(strings.Join(parts, "\n"), SectionCap)
}

// compactStructuredData joins the page's JSON-LD blocks with whitespace
// squeezed out. Blocks that fail to compact are skipped.
func compactStructuredData(blocks []json.RawMessage) string {
	var b strings.Builder
	for _, block := range blocks {
		var compact bytes.Buffer
		if err := json.Compact(&compact, block); err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.Write(compact.Bytes())
	}
	return b.String()
}

// isMultiParagraph reports whether text has at least two non-empty
// paragraphs, the bar for the description branch.
func isMultiParagraph(text string) bool {
	count := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count >= 2
}

// Truncate bounds text to budget characters, preferring a sentence or
// paragraph boundary within 10% of the budget and falling back to a
// whitespace boundary, then to a hard cut.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	window := runes[:budget]
	floor := budget - int(float64(budget)*boundarySlack)

	if cut := lastBoundary(window, floor); cut > 0 {
		return strings.TrimRight(string(window[:cut]), " \t\n")
	}
	// Whitespace fallback, anywhere below the budget.
	for i := budget - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return strings.TrimRight(string(window[:i]), " \t\n")
		}
	}
	return string(window)
}

// lastBoundary finds the rightmost sentence or paragraph boundary at or
// after floor, returning the cut position (exclusive) or 0.
func lastBoundary(window []rune, floor int) int {
	for i := len(window) - 1; i >= floor && i > 0; i-- {
		r := window[i]
		if r == '\n' {
			return i
		}
		if i+1 < len(window) && unicode.IsSpace(window[i+1]) {
			switch r {
			case '.', '!', '?':
				return i + 1
			}
		}
	}
	// A terminal sentence mark right at the cut also counts.
	if last := window[len(window)-1]; last == '.' || last == '!' || last == '?' {
		if len(window)-1 >= floor {
			return len(window)
		}
	}
	return 0
}
