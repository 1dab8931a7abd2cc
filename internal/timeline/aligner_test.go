package timeline

import (
	"testing"
	"time"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

type fixedClock struct{ t float64 }

func (f *fixedClock) VideoCurrentTime() float64 { return f.t }

func testTimelineConfig() config.TimelineConfig {
	return config.TimelineConfig{SegmentRetentionSec: 30, SeekReopenDelayMs: 200}
}

func TestNewStreaming_CapturesAnchor(t *testing.T) {
	clock := &fixedClock{t: 12.5}
	a := NewStreaming(testTimelineConfig(), clock)
	if a.Anchor() != 12.5 {
		t.Errorf("expected anchor 12.5, got %v", a.Anchor())
	}
}

func TestAlignStreaming_WithWordTimes(t *testing.T) {
	clock := &fixedClock{t: 10.0}
	a := NewStreaming(testTimelineConfig(), clock)

	transcript := models.Transcript{
		Text: "hello world",
		Words: []models.Word{
			{Text: "hello", StartSec: 1.0, EndSec: 1.4},
			{Text: "world", StartSec: 1.4, EndSec: 1.8},
		},
		RecvTimestamp: time.Now(),
	}

	seg := a.AlignStreaming(transcript, 2.0, 3.0)
	if seg.StartSec != 11.0 {
		t.Errorf("expected startSec 11.0, got %v", seg.StartSec)
	}
	if seg.EndSec != 11.8 {
		t.Errorf("expected endSec 11.8, got %v", seg.EndSec)
	}
	if seg.StartSec > seg.EndSec {
		t.Error("expected start <= end")
	}
}

func TestAlignStreaming_NoWordTimes_FallsBackToElapsedWindow(t *testing.T) {
	clock := &fixedClock{t: 0.0}
	a := NewStreaming(testTimelineConfig(), clock)

	transcript := models.Transcript{Text: "no words", RecvTimestamp: time.Now()}
	seg := a.AlignStreaming(transcript, 5.0, 3.0)

	if seg.StartSec != 2.0 {
		t.Errorf("expected startSec 2.0 (5-3), got %v", seg.StartSec)
	}
	if seg.EndSec != 5.0 {
		t.Errorf("expected endSec 5.0, got %v", seg.EndSec)
	}
}

func TestAlignStreaming_ElapsedLessThanWindow_ClampsToZero(t *testing.T) {
	clock := &fixedClock{t: 0.0}
	a := NewStreaming(testTimelineConfig(), clock)

	transcript := models.Transcript{Text: "short", RecvTimestamp: time.Now()}
	seg := a.AlignStreaming(transcript, 1.0, 3.0)

	if seg.StartSec != 0.0 {
		t.Errorf("expected startSec clamped to 0, got %v", seg.StartSec)
	}
}

func TestAlignBatchChunk_CorrectsForDrift(t *testing.T) {
	clock := &fixedClock{t: 63.0}
	a := NewStreaming(testTimelineConfig(), clock)

	transcript := models.Transcript{
		Text: "chunk text",
		Words: []models.Word{
			{Text: "chunk", StartSec: 0.5, EndSec: 1.0},
			{Text: "text", StartSec: 1.0, EndSec: 1.5},
		},
		RecvTimestamp: time.Now(),
	}

	// chunkDurationSec = 3.0 -> correctedVideoStart = 63 - 3 = 60.
	seg := a.AlignBatchChunk(transcript, 3.0)
	if seg.StartSec != 60.5 {
		t.Errorf("expected startSec 60.5, got %v", seg.StartSec)
	}
	if seg.EndSec != 61.5 {
		t.Errorf("expected endSec 61.5, got %v", seg.EndSec)
	}
}

func TestRetention_EvictsOldSegments(t *testing.T) {
	clock := &fixedClock{t: 0.0}
	cfg := config.TimelineConfig{SegmentRetentionSec: 1, SeekReopenDelayMs: 200}
	a := NewStreaming(cfg, clock)

	old := models.Transcript{Text: "old", RecvTimestamp: time.Now().Add(-10 * time.Second)}
	a.AlignStreaming(old, 0, 0)

	fresh := models.Transcript{Text: "fresh", RecvTimestamp: time.Now()}
	a.AlignStreaming(fresh, 0, 0)

	recent := a.Recent()
	if len(recent) != 1 {
		t.Fatalf("expected 1 retained segment after eviction, got %d", len(recent))
	}
	if recent[0].Text != "fresh" {
		t.Errorf("expected 'fresh' to survive eviction, got %q", recent[0].Text)
	}
}

func TestOnSeekStreaming_ReturnsReopenAction(t *testing.T) {
	action, delay := OnSeekStreaming(testTimelineConfig())
	if action != SeekActionReopenSession {
		t.Errorf("expected SeekActionReopenSession, got %v", action)
	}
	if delay != 200*time.Millisecond {
		t.Errorf("expected 200ms delay, got %v", delay)
	}
}

func TestOnSeekBatch_ReturnsNoAction(t *testing.T) {
	if OnSeekBatch() != SeekActionNone {
		t.Error("expected SeekActionNone for batch backend")
	}
}
