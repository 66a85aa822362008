package service

import (
	"context"
	"errors"
	"testing"

	"noxscan/models"
	"noxscan/scanner"
)

// Run must reject a bad target before anything is recorded. These cases run
// without a database on purpose: reaching the persistence path would abort
// the test process on the missing client.
func TestRunRejectsBadTargetBeforePersisting(t *testing.T) {
	svc := NewScanService(nil)

	tests := []struct {
		name   string
		target string
		want   error
	}{
		{"garbage", "not-an-ip/99", scanner.ErrInvalidRange},
		{"empty", "", scanner.ErrInvalidRange},
		{"hostname", "printer.local", scanner.ErrInvalidRange},
		{"too wide", "10.0.0.0/8", scanner.ErrRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Run(context.Background(), tt.target, models.ModeFull, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run(%q) error = %v, want %v", tt.target, err, tt.want)
			}
			if result != nil {
				t.Errorf("Run(%q) returned a result for a bad target", tt.target)
			}
		})
	}
}

// GetLatest normalizes the target before building the cache key; a target
// that cannot normalize is a guaranteed miss, never a cache read.
func TestGetLatestRejectsBadTarget(t *testing.T) {
	svc := NewScanService(nil)

	for _, target := range []string{"not-an-ip", "", "10.0.0.0/8"} {
		if _, ok := svc.GetLatest(target); ok {
			t.Errorf("GetLatest(%q) reported a hit for a bad target", target)
		}
	}
}

// Every spelling of a range must read the cache entry written under the
// canonical form stamped into the stored result.
func TestLatestCacheKeyCanonical(t *testing.T) {
	want := latestCacheKey("192.168.1.0/24")

	for _, target := range []string{"192.168.1.0/24", "192.168.1.*", "192.168.1.5"} {
		network, err := scanner.NormalizeTarget(target)
		if err != nil {
			t.Fatalf("NormalizeTarget(%q) returned error: %v", target, err)
		}
		if got := latestCacheKey(network); got != want {
			t.Errorf("cache key for %q = %q, want %q", target, got, want)
		}
	}
}
