// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// Sliding-window rate limiter + retrying search wrapper
// =============================================================================

// SlidingWindowLimiter admits at most limit acquisitions per window,
// measured over a true sliding window of timestamps rather than fixed
// buckets.
//
// Thread Safety: safe for concurrent use.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewSlidingWindowLimiter builds a limiter admitting limit calls per
// window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{limit: limit, window: window, now: time.Now}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *SlidingWindowLimiter) Acquire(ctx context.Context) error {
	for {
		wait := l.tryAcquire()
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire records an admission and returns 0, or returns how long until
// the oldest in-window stamp ages out.
func (l *SlidingWindowLimiter) tryAcquire() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	alive := l.stamps[:0]
	for _, s := range l.stamps {
		if s.After(cutoff) {
			alive = append(alive, s)
		}
	}
	l.stamps = alive

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)
		return 0
	}
	return l.stamps[0].Sub(cutoff)
}

// RateLimitedSearch wraps a SearchProvider with client-side rate limiting
// and bounded retry on provider rate-limit responses. The phase timeout on
// ctx bounds the total time spent retrying.
type RateLimitedSearch struct {
	inner      SearchProvider
	limiter    *SlidingWindowLimiter
	maxRetries int
	baseDelay  time.Duration
	log        *slog.Logger
}

// NewRateLimitedSearch wraps inner. maxRetries <= 0 selects 3.
func NewRateLimitedSearch(inner SearchProvider, limiter *SlidingWindowLimiter, maxRetries int, log *slog.Logger) *RateLimitedSearch {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &RateLimitedSearch{
		inner:      inner,
		limiter:    limiter,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		log:        log,
	}
}

// Search acquires a limiter slot, then retries rate-limited calls with
// exponential backoff. Other errors return immediately.
func (r *RateLimitedSearch) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	var lastErr error
	delay := r.baseDelay
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}
		results, err := r.inner.Search(ctx, query, opts)
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		lastErr = err
		r.log.Warn("search rate limited, backing off",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return nil, lastErr
}
