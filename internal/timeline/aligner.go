// Package timeline implements the Timeline Aligner (TA): it maps
// recognition-time coordinates onto video-player coordinates, handles
// the seek/pause policy, and applies the batch backend's per-chunk
// drift correction.
package timeline

import (
	"sync"
	"time"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

// PlayerClock is the host-control surface TA consumes: the video
// player's current playback position. Modeled synchronously here
// (spec §6 allows either a synchronous same-context call or an async
// RPC; a Go process collapses both to one blocking call at the TA's
// I/O boundary).
type PlayerClock interface {
	VideoCurrentTime() float64
}

// Aligner is the Timeline Aligner. One Aligner serves one session;
// a seek on the streaming backend requires a fresh Aligner (grounded
// in spec §4.4's "new session id" rule after seek-induced reset).
type Aligner struct {
	cfg    config.TimelineConfig
	clock  PlayerClock
	anchor float64

	mu     sync.Mutex
	recent []models.Segment // retained for the retention window, newest last
}

// NewStreaming creates an Aligner for the streaming backend, capturing
// anchor immediately (the caller invokes this at the moment SC reaches
// Connected, per spec §4.4).
func NewStreaming(cfg config.TimelineConfig, clock PlayerClock) *Aligner {
	return &Aligner{
		cfg:    cfg,
		clock:  clock,
		anchor: clock.VideoCurrentTime(),
	}
}

// Anchor returns the session's captured video-time anchor.
func (a *Aligner) Anchor() float64 {
	return a.anchor
}

// AlignStreaming maps a Transcript's word times (relative to
// session-start-of-audio) onto video-time Segments. If the transcript
// carries no word-level timing, it falls back to covering the elapsed
// audio window ending at the current elapsed time.
func (a *Aligner) AlignStreaming(t models.Transcript, audioElapsedSec, recentWindowSec float64) models.Segment {
	var seg models.Segment
	if len(t.Words) > 0 {
		seg = models.Segment{
			StartSec:    a.anchor + t.Words[0].StartSec,
			EndSec:      a.anchor + t.Words[len(t.Words)-1].EndSec,
			Text:        t.Text,
			Confidence:  t.Confidence,
			ArrivalTime: t.RecvTimestamp,
		}
	} else {
		start := audioElapsedSec - recentWindowSec
		if start < 0 {
			start = 0
		}
		seg = models.Segment{
			StartSec:    a.anchor + start,
			EndSec:      a.anchor + audioElapsedSec,
			Text:        t.Text,
			Confidence:  t.Confidence,
			ArrivalTime: t.RecvTimestamp,
		}
	}
	a.retain(seg)
	return seg
}

// AlignBatchChunk maps a batch chunk's word-relative times through the
// per-chunk drift correction: it queries the player's current time
// after recognition completes and computes correctedVideoStart =
// currentTime - chunkDurationSec, per spec §4.4's batch case.
func (a *Aligner) AlignBatchChunk(t models.Transcript, chunkDurationSec float64) models.Segment {
	currentTime := a.clock.VideoCurrentTime()
	correctedStart := currentTime - chunkDurationSec

	var startSec, endSec float64
	if len(t.Words) > 0 {
		startSec = correctedStart + t.Words[0].StartSec
		endSec = correctedStart + t.Words[len(t.Words)-1].EndSec
	} else {
		startSec = correctedStart
		endSec = currentTime
	}

	seg := models.Segment{
		StartSec:    startSec,
		EndSec:      endSec,
		Text:        t.Text,
		Confidence:  t.Confidence,
		ArrivalTime: t.RecvTimestamp,
	}
	a.retain(seg)
	return seg
}

// retain appends seg to the recent-segment ring, evicting anything
// older than the configured retention window.
func (a *Aligner) retain(seg models.Segment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = append(a.recent, seg)

	cutoff := seg.ArrivalTime.Add(-time.Duration(a.cfg.SegmentRetentionSec) * time.Second)
	i := 0
	for ; i < len(a.recent); i++ {
		if a.recent[i].ArrivalTime.After(cutoff) {
			break
		}
	}
	a.recent = a.recent[i:]
}

// Recent returns a copy of the retained segments within the retention
// window.
func (a *Aligner) Recent() []models.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Segment, len(a.recent))
	copy(out, a.recent)
	return out
}

// SeekAction describes what a host session-manager must do in
// response to a seeked event, per spec §4.4's seek/pause policy.
type SeekAction int

const (
	// SeekActionReopenSession: streaming backend — terminate the
	// session, wait SeekReopenDelayMs, reopen with a fresh anchor.
	SeekActionReopenSession SeekAction = iota
	// SeekActionNone: batch backend — no state change needed, since
	// per-chunk correction re-anchors naturally.
	SeekActionNone
)

// OnSeekStreaming reports the action and reopen delay for a seek event
// on the streaming backend.
func OnSeekStreaming(cfg config.TimelineConfig) (SeekAction, time.Duration) {
	return SeekActionReopenSession, time.Duration(cfg.SeekReopenDelayMs) * time.Millisecond
}

// OnSeekBatch reports the action for a seek event on the batch
// backend: always a no-op.
func OnSeekBatch() SeekAction {
	return SeekActionNone
}
