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
	"testing"
	"time"
)

func TestSlidingWindowAdmitsUpToLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewSlidingWindowLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := range 3 {
		if wait := l.tryAcquire(); wait != 0 {
			t.Fatalf("call %d should be admitted, got wait %v", i, wait)
		}
	}
	if wait := l.tryAcquire(); wait <= 0 {
		t.Fatal("fourth call within window should be deferred")
	}

	// After the window slides past the first stamp, a slot frees up.
	now = now.Add(61 * time.Second)
	if wait := l.tryAcquire(); wait != 0 {
		t.Fatalf("call after window should be admitted, got wait %v", wait)
	}
}

type scriptedSearch struct {
	errs    []error
	results []SearchResult
	calls   int
}

func (s *scriptedSearch) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	defer func() { s.calls++ }()
	if s.calls < len(s.errs) && s.errs[s.calls] != nil {
		return nil, s.errs[s.calls]
	}
	return s.results, nil
}

func TestRateLimitedSearchRetries(t *testing.T) {
	inner := &scriptedSearch{
		errs:    []error{ErrRateLimited, ErrRateLimited, nil},
		results: []SearchResult{{URL: "https://example.edu"}},
	}
	wrapped := NewRateLimitedSearch(inner, nil, 3, nil)
	wrapped.baseDelay = time.Millisecond

	got, err := wrapped.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || inner.calls != 3 {
		t.Errorf("results=%v calls=%d", got, inner.calls)
	}
}

func TestRateLimitedSearchDoesNotRetryTransport(t *testing.T) {
	inner := &scriptedSearch{errs: []error{ErrUnavailable}}
	wrapped := NewRateLimitedSearch(inner, nil, 3, nil)
	wrapped.baseDelay = time.Millisecond

	_, err := wrapped.Search(context.Background(), "q", SearchOptions{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", inner.calls)
	}
}

func TestRateLimitedSearchHonorsCancellation(t *testing.T) {
	inner := &scriptedSearch{errs: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	wrapped := NewRateLimitedSearch(inner, nil, 3, nil)
	wrapped.baseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := wrapped.Search(ctx, "q", SearchOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
