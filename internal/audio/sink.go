package audio

import "sync"

// BoundedSink is a fixed-capacity, non-blocking FrameSink: TryAccept
// drops the incoming frame and increments Dropped when the internal
// channel is full, rather than blocking the producer. This is the
// backpressure behavior spec §4.2 requires of Mode A.
type BoundedSink struct {
	frames chan ModeAFrame

	mu      sync.Mutex
	dropped uint64
}

// NewBoundedSink creates a sink buffering up to capacity frames.
func NewBoundedSink(capacity int) *BoundedSink {
	return &BoundedSink{frames: make(chan ModeAFrame, capacity)}
}

// TryAccept implements FrameSink.
func (s *BoundedSink) TryAccept(frame ModeAFrame) bool {
	select {
	case s.frames <- frame:
		return true
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return false
	}
}

// Frames exposes the receive side for a consumer goroutine.
func (s *BoundedSink) Frames() <-chan ModeAFrame {
	return s.frames
}

// Dropped returns the number of frames dropped so far.
func (s *BoundedSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close closes the underlying channel. Callers must not call
// TryAccept after Close.
func (s *BoundedSink) Close() {
	close(s.frames)
}
