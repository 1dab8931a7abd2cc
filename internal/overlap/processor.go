// Package overlap implements the Overlap Processor (OP): deduplicates
// and merges transcripts from overlapping batch windows using
// time-overlap and text-similarity heuristics, then applies
// language-aware sentence-merge rules. Active only when the batch
// backend is in use.
package overlap

import (
	"strings"
	"unicode"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

// Processor is the Overlap Processor. One Processor serves one
// session; Reset clears its retained state (spec §4.5's reset(),
// called on disable and on seek).
type Processor struct {
	cfg      config.OverlapConfig
	previous []models.Segment // shifted segments from window n-1
	seenAny  bool
}

// New builds a Processor with the given configuration.
func New(cfg config.OverlapConfig) *Processor {
	return &Processor{cfg: cfg}
}

// Reset clears all retained state.
func (p *Processor) Reset() {
	p.previous = nil
	p.seenAny = false
}

// Process implements the per-call contract: given the segments
// recognized for window n (already in chunk-relative time) and that
// window's absolute start offset, it shifts them to absolute time,
// deduplicates against window n-1's retained segments, and returns
// only the segments that are new relative to n-1.
func (p *Processor) Process(segments []models.Segment, chunkStartSec float64) []models.Segment {
	shifted := shiftSegments(segments, chunkStartSec)

	if !p.seenAny {
		p.seenAny = true
		p.previous = shifted
		return shifted
	}

	overlapEnd := chunkStartSec + float64(p.cfg.OverlapDurationMs)/1000.0

	var prevInWindow []models.Segment
	for _, s := range p.previous {
		if segmentIntersects(s, chunkStartSec, overlapEnd) {
			prevInWindow = append(prevInWindow, s)
		}
	}

	var result []models.Segment
	for _, c := range shifted {
		if !segmentIntersects(c, chunkStartSec, overlapEnd) {
			result = append(result, c)
			continue
		}
		if !p.isDuplicate(c, prevInWindow) {
			result = append(result, c)
		}
	}

	p.previous = shifted
	return result
}

func (p *Processor) isDuplicate(c models.Segment, candidates []models.Segment) bool {
	for _, prev := range candidates {
		if jaccardSimilarity(prev.Text, c.Text) < 0.6*p.cfg.SimilarityThreshold {
			continue
		}
		timeOverlapRatio := overlapRatio(prev, c)
		textSim := textSimilarity(prev.Text, c.Text, p.cfg.MaxCompareLength)

		if timeOverlapRatio > 0.8 || (timeOverlapRatio > 0.5 && textSim > p.cfg.SimilarityThreshold) {
			return true
		}
	}
	return false
}

func shiftSegments(segments []models.Segment, offsetSec float64) []models.Segment {
	out := make([]models.Segment, len(segments))
	for i, s := range segments {
		shifted := s
		shifted.StartSec += offsetSec
		shifted.EndSec += offsetSec
		out[i] = shifted
	}
	return out
}

func segmentIntersects(s models.Segment, windowStart, windowEnd float64) bool {
	return s.StartSec < windowEnd && s.EndSec > windowStart
}

// overlapRatio computes overlap(p,c) / min(len(p), len(c)).
func overlapRatio(p, c models.Segment) float64 {
	overlapStart := max64(p.StartSec, c.StartSec)
	overlapEnd := min64(p.EndSec, c.EndSec)
	overlap := overlapEnd - overlapStart
	if overlap <= 0 {
		return 0
	}
	pLen := p.EndSec - p.StartSec
	cLen := c.EndSec - c.StartSec
	denom := min64(pLen, cLen)
	if denom <= 0 {
		return 0
	}
	return overlap / denom
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// normalize strips punctuation and case-folds, for similarity
// comparison.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// jaccardSimilarity is the quick-reject filter: character-set
// (not sequence) similarity between the two raw strings.
func jaccardSimilarity(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA)
	for r := range setB {
		if !setA[r] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]bool {
	out := make(map[rune]bool)
	for _, r := range s {
		out[r] = true
	}
	return out
}

// textSimilarity computes 1 - lev(normalize(a), normalize(b)) /
// max(|a|,|b|), truncated to maxLen characters. If the two strings
// differ in length by more than 50%, returns 0 without computing
// Levenshtein distance.
func textSimilarity(a, b string, maxLen int) float64 {
	na := truncateRunes(normalize(a), maxLen)
	nb := truncateRunes(normalize(b), maxLen)

	la, lb := len([]rune(na)), len([]rune(nb))
	if la == 0 && lb == 0 {
		return 1
	}
	longer, shorter := la, lb
	if lb > la {
		longer, shorter = lb, la
	}
	if longer == 0 {
		return 0
	}
	if float64(longer-shorter)/float64(longer) > 0.5 {
		return 0
	}

	dist := levenshtein(na, nb)
	maxLenRunes := longer
	if maxLenRunes == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLenRunes)
}

func truncateRunes(s string, maxLen int) string {
	r := []rune(s)
	if len(r) > maxLen {
		r = r[:maxLen]
	}
	return string(r)
}

// levenshtein computes the edit distance between two strings, rune-
// aware so multi-byte scripts (Chinese, Japanese, Korean) are measured
// in characters, not bytes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Levenshtein exposes the edit-distance function for callers and
// tests outside this package (spec §8, testable property #5 and
// scenario #8).
func Levenshtein(a, b string) int {
	return levenshtein(a, b)
}
