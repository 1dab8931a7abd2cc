package segment

import (
	"sync"
	"testing"
)

func TestGenerator_Next(t *testing.T) {
	gen := New()

	seg1 := gen.Next("sess-123")
	if seg1 != "sess-123-seg-1" {
		t.Errorf("expected 'sess-123-seg-1', got %s", seg1)
	}

	seg2 := gen.Next("sess-123")
	if seg2 != "sess-123-seg-2" {
		t.Errorf("expected 'sess-123-seg-2', got %s", seg2)
	}

	seg3 := gen.Next("sess-456")
	if seg3 != "sess-456-seg-3" {
		t.Errorf("expected 'sess-456-seg-3', got %s", seg3)
	}
}

func TestGenerator_ThreadSafety(t *testing.T) {
	gen := New()
	numGoroutines := 100
	resultsPerGoroutine := 10

	var wg sync.WaitGroup
	results := make(chan string, numGoroutines*resultsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < resultsPerGoroutine; j++ {
				results <- gen.Next("sess-concurrent")
			}
		}()
	}

	wg.Wait()
	close(results)

	// Collect all segment IDs
	seen := make(map[string]bool)
	for seg := range results {
		if seen[seg] {
			t.Errorf("duplicate segment ID generated: %s", seg)
		}
		seen[seg] = true
	}

	expectedCount := numGoroutines * resultsPerGoroutine
	if len(seen) != expectedCount {
		t.Errorf("expected %d unique segment IDs, got %d", expectedCount, len(seen))
	}
}

func TestGenerator_CounterMonotonic(t *testing.T) {
	gen := New()

	var prevNum uint64 = 0
	for i := 0; i < 100; i++ {
		seg := gen.Next("sess-test")
		// Extract number from segment ID (format: "sess-test-seg-N")
		var num uint64
		_, err := parseSegmentNumber(seg, &num)
		if err != nil {
			t.Fatalf("failed to parse segment: %s", seg)
		}
		if num <= prevNum {
			t.Errorf("counter not monotonic: %d <= %d", num, prevNum)
		}
		prevNum = num
	}
}

// Helper to parse segment number
func parseSegmentNumber(seg string, num *uint64) (bool, error) {
	var prefix string
	n, err := parseSegFormat(seg, &prefix, num)
	return n == 2, err
}

func parseSegFormat(seg string, prefix *string, num *uint64) (int, error) {
	var n int
	_, err := scanSegment(seg, prefix, num, &n)
	return n, err
}

func scanSegment(seg string, prefix *string, num *uint64, count *int) (bool, error) {
	// Simple parser for "prefix-seg-N" format
	for i := len(seg) - 1; i >= 0; i-- {
		if seg[i] == '-' {
			// Found last dash, parse number after it
			numStr := seg[i+1:]
			var n uint64
			for _, c := range numStr {
				if c >= '0' && c <= '9' {
					n = n*10 + uint64(c-'0')
				}
			}
			*num = n
			*count = 2
			return true, nil
		}
	}
	return false, nil
}

func TestGenerator_DifferentSessions(t *testing.T) {
	gen := New()

	// Generate segments for different sessions
	seg1a := gen.Next("sess-A")
	seg1b := gen.Next("sess-B")
	seg2a := gen.Next("sess-A")

	// All should be unique
	if seg1a == seg1b || seg1a == seg2a || seg1b == seg2a {
		t.Error("segment IDs should all be unique across sessions")
	}

	// Counter should be shared (global)
	// seg1a = "sess-A-seg-1", seg1b = "sess-B-seg-2", seg2a = "sess-A-seg-3"
	if seg1a != "sess-A-seg-1" {
		t.Errorf("expected 'sess-A-seg-1', got %s", seg1a)
	}
	if seg1b != "sess-B-seg-2" {
		t.Errorf("expected 'sess-B-seg-2', got %s", seg1b)
	}
	if seg2a != "sess-A-seg-3" {
		t.Errorf("expected 'sess-A-seg-3', got %s", seg2a)
	}
}
