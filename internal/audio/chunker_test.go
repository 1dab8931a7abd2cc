package audio

import (
	"bytes"
	"testing"

	"caption-core/internal/config"
)

func TestChunker_WindowsWithHeaderRepair(t *testing.T) {
	cfg := config.AudioConfig{WindowSec: 3.0, StepSec: 2.0}
	// 1000 bytes/sec -> window = 3000 bytes, step = 2000 bytes.
	c := NewChunker(cfg, 1000, 10)

	header := bytes.Repeat([]byte{0xAA}, 10)
	body := bytes.Repeat([]byte{0x01}, 5000)
	data := append(append([]byte{}, header...), body...)

	chunks := c.Push(data)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected first chunk index 0, got %d", chunks[0].Index)
	}
	// Chunk 0 carries no prefixed header (it already contains it from the stream).
	if len(chunks) > 1 {
		second := chunks[1]
		if !bytes.HasPrefix(second.Bytes, header) {
			t.Error("expected second chunk to carry repaired header")
		}
	}
}

func TestChunker_Flush_EmitsRemainder(t *testing.T) {
	cfg := config.AudioConfig{WindowSec: 3.0, StepSec: 2.0}
	c := NewChunker(cfg, 1000, 10)

	c.Push(bytes.Repeat([]byte{0x01}, 500))
	remainder := c.Flush()
	if remainder == nil {
		t.Fatal("expected non-nil remainder")
	}
	if len(remainder.Bytes) != 500 {
		t.Errorf("expected 500 remainder bytes, got %d", len(remainder.Bytes))
	}
}

func TestChunker_Flush_EmptyReturnsNil(t *testing.T) {
	cfg := config.AudioConfig{WindowSec: 3.0, StepSec: 2.0}
	c := NewChunker(cfg, 1000, 10)

	if c.Flush() != nil {
		t.Error("expected nil flush on empty buffer")
	}
}

func TestToWireFromWire_RoundTrip(t *testing.T) {
	cfg := config.AudioConfig{WindowSec: 3.0, StepSec: 2.0}
	c := NewChunker(cfg, 1000, 10)
	chunks := c.Push(bytes.Repeat([]byte{0x07}, 3000))
	if len(chunks) == 0 {
		t.Fatal("expected a chunk")
	}

	wire := ToWire(chunks[0])
	back, err := FromWire(wire)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if !bytes.Equal(back.Bytes, chunks[0].Bytes) {
		t.Error("expected round-tripped bytes to match")
	}
	if back.Index != chunks[0].Index {
		t.Errorf("expected index %d, got %d", chunks[0].Index, back.Index)
	}
}
