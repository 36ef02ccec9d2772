// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/profiler/services/profiler/cache"
	"github.com/AleutianAI/profiler/services/profiler/providers"
	"github.com/AleutianAI/profiler/services/profiler/search"
)

// ErrEmpty reports that no URL produced an artifact. Non-fatal: the
// orchestrator degrades and extraction runs on the search snippet.
var ErrEmpty = errors.New("crawl: no pages fetched")

// DefaultConcurrency bounds simultaneous fetches within one request.
const DefaultConcurrency = 8

// perPageTextCap bounds each page's contribution to the aggregate text.
const perPageTextCap = 2000

// documentCap bounds collected document links.
const documentCap = 15

// socialPerPlatformCap bounds collected links per social platform.
const socialPerPlatformCap = 3

// socialPlatforms maps known hosts to a platform tag.
var socialPlatforms = map[string]string{
	"facebook.com":  "facebook",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"instagram.com": "instagram",
	"youtube.com":   "youtube",
}

var documentExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx"}

// Page is one fetched URL with its scores.
type Page struct {
	Artifact providers.CrawlArtifact `json:"artifact"`
	Tier     search.Tier             `json:"tier"`
	Score    int                     `json:"score"`
	Images   []ScoredImage           `json:"images,omitempty"`
	Richness int                     `json:"content_richness"`
}

// Result is the crawl phase artifact.
type Result struct {
	// Pages are ordered by link priority, not completion order, so
	// downstream merges are deterministic.
	Pages []Page `json:"pages"`
	// TotalText aggregates per-page primary content, bounded per page.
	TotalText string `json:"total_text"`
	// Logos are logo candidates across all pages, confidence descending.
	Logos []ScoredImage `json:"logos,omitempty"`
	// SocialLinks maps platform to deduplicated profile URLs.
	SocialLinks map[string][]string `json:"social_links,omitempty"`
	// Documents are linked document files across all pages.
	Documents []string `json:"documents,omitempty"`

	Attempted  int   `json:"attempted"`
	Succeeded  int   `json:"succeeded"`
	TotalBytes int64 `json:"total_bytes"`
}

// SuccessRate returns succeeded/attempted in [0, 1].
func (r *Result) SuccessRate() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Attempted)
}

// Phase fetches prioritized URLs and scores their media.
//
// Thread Safety: one Phase serves concurrent requests; per-request state
// lives on the stack of Run.
type Phase struct {
	engine      providers.CrawlerEngine
	cache       *cache.Store
	concurrency int64
	domainRate  rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	log *slog.Logger
}

// New wires the phase. concurrency <= 0 selects DefaultConcurrency;
// domainRate <= 0 selects 2 requests/second per domain.
func New(engine providers.CrawlerEngine, store *cache.Store, concurrency int, domainRate float64, log *slog.Logger) *Phase {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if domainRate <= 0 {
		domainRate = 2
	}
	if log == nil {
		log = slog.Default()
	}
	return &Phase{
		engine:      engine,
		cache:       store,
		concurrency: int64(concurrency),
		domainRate:  rate.Limit(domainRate),
		limiters:    make(map[string]*rate.Limiter),
		log:         log,
	}
}

// limiterFor returns the politeness limiter for a host.
func (p *Phase) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(p.domainRate, 1)
		p.limiters[host] = l
	}
	return l
}

// target is one planned fetch.
type target struct {
	link   search.ScoredLink
	budget Budget
}

// Run fetches the planned subset of links under the strategy's tier
// budgets with bounded concurrency.
//
// Inputs:
//   - nameTokens: normalized institution name tokens for logo scoring.
//   - maxPages: global page cap, 0 for no extra cap.
//
// Outputs:
//   - *Result: always non-nil; Pages ordered by link priority.
//   - error: ErrEmpty when nothing succeeded, or ctx.Err() on cancel.
func (p *Phase) Run(ctx context.Context, links []search.ScoredLink, nameTokens []string, strategy Strategy, maxPages int, force bool) (*Result, error) {
	targets := planTargets(links, Budgets(strategy), maxPages)
	result := &Result{Attempted: len(targets)}
	if len(targets) == 0 {
		return result, ErrEmpty
	}
	if p.engine == nil {
		return result, fmt.Errorf("%w: no crawler engine configured", providers.ErrUnavailable)
	}

	pages := make([]*providers.CrawlArtifact, len(targets))
	sem := semaphore.NewWeighted(p.concurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for i, tgt := range targets {
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			artifact, err := p.fetchOne(groupCtx, tgt, force)
			if err != nil {
				// Per-URL failures are isolated; cancellation is not.
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				p.log.Warn("crawl fetch failed",
					slog.String("url", tgt.link.URL),
					slog.Any("error", err))
				return nil
			}
			pages[i] = artifact
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}

	// Combine in plan order regardless of completion order.
	for i, artifact := range pages {
		if artifact == nil {
			continue
		}
		page := Page{
			Artifact: *artifact,
			Tier:     targets[i].link.Tier,
			Score:    targets[i].link.Score,
			Richness: ContentRichness(artifact),
		}
		for _, img := range artifact.Images {
			page.Images = append(page.Images, ScoreImage(img, nameTokens))
		}
		result.Pages = append(result.Pages, page)
		result.Succeeded++
		result.TotalBytes += artifact.SizeBytes
	}
	if result.Succeeded == 0 {
		return result, ErrEmpty
	}

	p.aggregate(result)
	p.log.Info("crawl complete",
		slog.Int("attempted", result.Attempted),
		slog.Int("succeeded", result.Succeeded),
		slog.Int64("bytes", result.TotalBytes))
	return result, nil
}

// fetchOne resolves one URL through the per-URL cache.
func (p *Phase) fetchOne(ctx context.Context, tgt target, force bool) (*providers.CrawlArtifact, error) {
	canonical := CanonicalURL(tgt.link.URL)

	fill := func(ctx context.Context) (json.RawMessage, error) {
		if host := hostOf(canonical); host != "" {
			if err := p.limiterFor(host).Wait(ctx); err != nil {
				return nil, err
			}
		}
		artifact, err := p.engine.Fetch(ctx, canonical, providers.CrawlOptions{
			JSEnabled:   true,
			FollowDepth: tgt.budget.MaxDepth,
			MaxPages:    tgt.budget.MaxPages,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(artifact)
	}

	raw, _, err := p.cache.GetOrFill(ctx, canonical, force, fill)
	if err != nil {
		return nil, err
	}
	var artifact providers.CrawlArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("decode cached artifact: %w", err)
	}
	return &artifact, nil
}

// planTargets deduplicates by canonical URL and applies tier budgets plus
// the global cap, preserving the incoming priority order.
func planTargets(links []search.ScoredLink, budgets map[search.Tier]Budget, maxPages int) []target {
	used := make(map[search.Tier]int)
	seen := make(map[string]struct{})
	var targets []target
	for _, link := range links {
		canonical := CanonicalURL(link.URL)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		budget := budgets[link.Tier]
		if used[link.Tier] >= budget.MaxPages {
			continue
		}
		if maxPages > 0 && len(targets) >= maxPages {
			break
		}
		seen[canonical] = struct{}{}
		used[link.Tier]++
		targets = append(targets, target{link: link, budget: budget})
	}
	return targets
}

// aggregate derives the cross-page collections from the combined pages.
func (p *Phase) aggregate(result *Result) {
	var text strings.Builder
	socials := make(map[string]map[string]struct{})
	docsSeen := make(map[string]struct{})

	for _, page := range result.Pages {
		content := page.Artifact.Markdown.PrimaryContent
		if len(content) > perPageTextCap {
			content = content[:perPageTextCap]
		}
		if content != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(content)
		}

		for _, img := range page.Images {
			if img.LogoCandidate {
				result.Logos = append(result.Logos, img)
			}
		}

		for _, link := range page.Artifact.ExternalLinks {
			if platform := socialPlatformOf(link); platform != "" {
				if socials[platform] == nil {
					socials[platform] = make(map[string]struct{})
				}
				socials[platform][link] = struct{}{}
			}
		}
		for _, link := range append(append([]string(nil), page.Artifact.InternalLinks...), page.Artifact.ExternalLinks...) {
			if len(result.Documents) >= documentCap {
				break
			}
			if isDocumentLink(link) {
				if _, dup := docsSeen[link]; !dup {
					docsSeen[link] = struct{}{}
					result.Documents = append(result.Documents, link)
				}
			}
		}
	}
	result.TotalText = text.String()

	sort.SliceStable(result.Logos, func(i, j int) bool {
		return result.Logos[i].LogoConfidence > result.Logos[j].LogoConfidence
	})

	if len(socials) > 0 {
		result.SocialLinks = make(map[string][]string, len(socials))
		for platform, urls := range socials {
			list := make([]string, 0, len(urls))
			for u := range urls {
				list = append(list, u)
			}
			sort.Strings(list)
			if len(list) > socialPerPlatformCap {
				list = list[:socialPerPlatformCap]
			}
			result.SocialLinks[platform] = list
		}
	}
}

// CanonicalURL lowercases the host, strips fragments and trailing
// slashes, and drops obviously non-web schemes.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// socialPlatformOf returns the platform tag for a URL on a known social
// host, or "".
func socialPlatformOf(rawURL string) string {
	host := strings.TrimPrefix(strings.ToLower(hostOf(rawURL)), "www.")
	if platform, ok := socialPlatforms[host]; ok {
		return platform
	}
	for suffixHost, platform := range socialPlatforms {
		if strings.HasSuffix(host, "."+suffixHost) {
			return platform
		}
	}
	return ""
}

func isDocumentLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
