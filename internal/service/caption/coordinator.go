// Package caption coordinates a single streaming captioning session:
// it implements sessionclient.Callback, feeds each final transcript
// through the Timeline Aligner and Overlap Processor, and mirrors
// interim transcripts and the resulting segments onto Kafka. It also enforces the backpressure guardrails a runaway
// session could otherwise hit (unbounded audio buffering, an endless
// partial stream, a segment that never reaches a final), dropping the
// segment rather than emitting incomplete data, the same
// "silence beats bad data" rule the teacher's audio.Handler used.
package caption

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"caption-core/internal/config"
	"caption-core/internal/events"
	"caption-core/internal/models"
	"caption-core/internal/observability/logging"
	"caption-core/internal/overlap"
	"caption-core/internal/service/segment"
	"caption-core/internal/sessionclient"
	"caption-core/internal/timeline"
)

// Coordinator implements sessionclient.Callback for one session,
// threading inbound final transcripts through TA and OP before publishing.
type Coordinator struct {
	sessionID string

	aligner   *timeline.Aligner
	processor *overlap.Processor
	publisher *events.Publisher

	segmentGen *segment.Generator
	lifecycle  *segment.Lifecycle

	limits config.SegmentLimits

	mu               sync.Mutex
	audioBytes       int64
	segmentStartTime time.Time
	partialCount     int
	utteranceCount   int
}

// New constructs a Coordinator for one streaming session. clock feeds
// the Timeline Aligner's video-time anchor.
func New(
	sessionID string,
	timelineCfg config.TimelineConfig,
	overlapCfg config.OverlapConfig,
	limits config.SegmentLimits,
	clock timeline.PlayerClock,
	publisher *events.Publisher,
) *Coordinator {
	segmentGen := segment.New()
	return &Coordinator{
		sessionID:        sessionID,
		aligner:          timeline.NewStreaming(timelineCfg, clock),
		processor:        overlap.New(overlapCfg),
		publisher:        publisher,
		segmentGen:       segmentGen,
		lifecycle:        segment.NewLifecycle(segmentGen.Next(sessionID)),
		limits:           limits,
		segmentStartTime: time.Now(),
	}
}

// RecordAudio tracks bytes sent so far this segment and drops the
// segment if either backpressure guardrail trips.
func (c *Coordinator) RecordAudio(n int) error {
	c.mu.Lock()
	c.audioBytes += int64(n)
	bytes := c.audioBytes
	started := c.segmentStartTime
	c.mu.Unlock()

	if c.limits.MaxAudioBytes > 0 && bytes > c.limits.MaxAudioBytes {
		reason := fmt.Sprintf("max audio bytes exceeded: %d > %d", bytes, c.limits.MaxAudioBytes)
		c.dropSegment(reason)
		return fmt.Errorf("segment limit exceeded: %s", reason)
	}
	if c.limits.MaxDuration > 0 && time.Since(started) > c.limits.MaxDuration {
		reason := fmt.Sprintf("max duration exceeded: %v > %v", time.Since(started), c.limits.MaxDuration)
		c.dropSegment(reason)
		return fmt.Errorf("segment limit exceeded: %s", reason)
	}
	return nil
}

// OnTranscript implements sessionclient.Callback. Interim transcripts
// are published as received to the interim topic; final transcripts
// are aligned, deduped, published to the segment topic, and close out
// the current segment and open the next one.
func (c *Coordinator) OnTranscript(t models.Transcript) {
	if !t.IsFinal {
		if err := c.lifecycle.EmitPartial(); err != nil {
			lg := logging.WithSegment(c.sessionID, c.lifecycle.SegmentId())
			lg.Debug().Err(err).Msg("partial ignored")
			return
		}
		c.mu.Lock()
		c.partialCount++
		count := c.partialCount
		c.mu.Unlock()

		if c.limits.MaxPartials > 0 && count > c.limits.MaxPartials {
			c.dropSegment(fmt.Sprintf("max partials exceeded: %d > %d", count, c.limits.MaxPartials))
			return
		}

		ctx := context.Background()
		if err := c.publisher.PublishTranscript(ctx, c.sessionID, t); err != nil {
			log.Warn().Err(err).Msg("failed to publish interim transcript")
		}
		return
	}

	if err := c.lifecycle.EmitFinal(); err != nil {
		lg := logging.WithSegment(c.sessionID, c.lifecycle.SegmentId())
		lg.Debug().Err(err).Msg("final ignored")
		return
	}

	c.mu.Lock()
	elapsed := time.Since(c.segmentStartTime).Seconds()
	c.mu.Unlock()

	seg := c.aligner.AlignStreaming(t, elapsed, elapsed)
	rel := seg
	rel.StartSec, rel.EndSec = 0, seg.EndSec-seg.StartSec
	deduped := c.processor.Process([]models.Segment{rel}, seg.StartSec)

	ctx := context.Background()
	for _, s := range deduped {
		if err := c.publisher.PublishSegment(ctx, c.lifecycle.SegmentId(), s); err != nil {
			log.Warn().Err(err).Msg("failed to publish segment")
		}
	}

	c.nextSegment()
}

// OnStateChange implements sessionclient.Callback.
func (c *Coordinator) OnStateChange(state models.SessionState) {
	lg := logging.WithSession(c.sessionID)
	lg.Debug().Str("state", state.String()).Msg("session state changed")
}

// OnError implements sessionclient.Callback: the current segment is
// dropped rather than emitted half-formed.
func (c *Coordinator) OnError(err error) {
	segmentID := c.lifecycle.SegmentId()
	dropped := c.lifecycle.Drop()
	lg := logging.WithSegment(c.sessionID, segmentID)
	lg.Warn().Bool("dropped", dropped).Err(err).Msg("session error, segment dropped")
}

func (c *Coordinator) dropSegment(reason string) {
	segmentID := c.lifecycle.SegmentId()
	dropped := c.lifecycle.Drop()
	lg := logging.WithSegment(c.sessionID, segmentID)
	lg.Warn().Str("reason", reason).Bool("dropped", dropped).Msg("segment dropped")
}

// nextSegment closes the current segment and resets counters for the
// one that follows, mirroring the utterance-boundary transition the
// teacher's handler performed on OnEndOfUtterance.
func (c *Coordinator) nextSegment() {
	c.lifecycle.Close()

	c.mu.Lock()
	c.utteranceCount++
	c.audioBytes = 0
	c.partialCount = 0
	c.segmentStartTime = time.Now()
	c.mu.Unlock()

	c.lifecycle.Reset(c.segmentGen.Next(c.sessionID))
}

// UtteranceCount returns the number of utterances closed so far.
func (c *Coordinator) UtteranceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.utteranceCount
}

var _ sessionclient.Callback = (*Coordinator)(nil)
