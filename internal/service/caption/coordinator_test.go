package caption

import (
	"testing"
	"time"

	"caption-core/internal/config"
	"caption-core/internal/events"
	"caption-core/internal/models"
)

type fixedClock struct{ t float64 }

func (f *fixedClock) VideoCurrentTime() float64 { return f.t }

func testLimits() config.SegmentLimits {
	return config.SegmentLimits{
		MaxAudioBytes: 1024 * 1024,
		MaxDuration:   time.Hour,
		MaxPartials:   1000,
	}
}

func newTestCoordinator(limits config.SegmentLimits) *Coordinator {
	publisher := events.New(config.KafkaConfig{Enabled: false})
	return New("sess-1", config.TimelineConfig{SegmentRetentionSec: 30}, config.OverlapConfig{SimilarityThreshold: 0.8, MaxCompareLength: 100}, limits, &fixedClock{t: 10}, publisher)
}

func TestCoordinator_RecordAudio_MaxBytesLimitDropsSegment(t *testing.T) {
	limits := testLimits()
	limits.MaxAudioBytes = 100

	c := newTestCoordinator(limits)

	if err := c.RecordAudio(50); err != nil {
		t.Fatalf("first send should succeed: %v", err)
	}
	if err := c.RecordAudio(60); err == nil {
		t.Fatal("expected error when exceeding max audio bytes")
	}
}

func TestCoordinator_MaxPartialsLimit_DropsSegment(t *testing.T) {
	limits := testLimits()
	limits.MaxPartials = 2

	c := newTestCoordinator(limits)

	for i := 0; i < 2; i++ {
		c.OnTranscript(models.Transcript{Text: "partial", IsFinal: false})
	}
	if c.lifecycle.IsDropped() {
		t.Fatal("segment should not be dropped after 2 partials")
	}

	c.OnTranscript(models.Transcript{Text: "one too many", IsFinal: false})
	if !c.lifecycle.IsDropped() {
		t.Error("segment should be dropped after exceeding max partials")
	}
}

func TestCoordinator_FinalTranscript_AdvancesToNextSegment(t *testing.T) {
	c := newTestCoordinator(testLimits())
	firstSegmentID := c.lifecycle.SegmentId()

	c.OnTranscript(models.Transcript{Text: "hello world", IsFinal: true})

	if c.UtteranceCount() != 1 {
		t.Errorf("expected utterance count 1, got %d", c.UtteranceCount())
	}
	if c.lifecycle.SegmentId() == firstSegmentID {
		t.Error("expected a new segment id after a final transcript")
	}
	if c.lifecycle.IsDropped() {
		t.Error("new segment should not start dropped")
	}
}

func TestCoordinator_OnError_DropsCurrentSegment(t *testing.T) {
	c := newTestCoordinator(testLimits())

	c.OnError(errTest)

	if !c.lifecycle.IsDropped() {
		t.Error("expected segment to be dropped after OnError")
	}
}

func TestCoordinator_OnStateChange_DoesNotPanic(t *testing.T) {
	c := newTestCoordinator(testLimits())
	c.OnStateChange(models.StateConnected)
}

var errTest = errShortCircuit("simulated session error")

type errShortCircuit string

func (e errShortCircuit) Error() string { return string(e) }
