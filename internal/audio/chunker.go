package audio

import (
	"encoding/base64"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

// Chunker implements Mode B: it accumulates compressed container bytes
// (e.g. WebM/Opus) and emits overlapping windowed chunks suitable for
// independent batch recognition, splicing the initial container
// header onto every chunk after the first so each one decodes on its
// own (spec §4.2's "container header repair").
type Chunker struct {
	cfg config.AudioConfig

	header      []byte // bytes captured from the first Push call, up to headerLen
	headerLen   int
	buf         []byte
	bufStartSec float64
	nextIndex   uint64

	windowBytesPerSec float64
}

// NewChunker builds a Chunker. bytesPerSec estimates the container's
// average bitrate so window/step seconds can be converted to byte
// offsets; headerLen is the number of leading bytes to treat as the
// container header (caller determines this from the container's
// magic/box structure before the first Push).
func NewChunker(cfg config.AudioConfig, bytesPerSec float64, headerLen int) *Chunker {
	return &Chunker{
		cfg:               cfg,
		headerLen:         headerLen,
		windowBytesPerSec: bytesPerSec,
	}
}

// Push appends newly captured container bytes and returns any windows
// that are now complete.
func (c *Chunker) Push(data []byte) []models.AudioChunk {
	if c.header == nil && len(data) >= c.headerLen {
		c.header = append([]byte(nil), data[:c.headerLen]...)
	}
	c.buf = append(c.buf, data...)

	windowBytes := int(c.cfg.WindowSec * c.windowBytesPerSec)
	stepBytes := int(c.cfg.StepSec * c.windowBytesPerSec)
	if windowBytes <= 0 || stepBytes <= 0 {
		return nil
	}

	var chunks []models.AudioChunk
	for len(c.buf) >= windowBytes {
		window := c.buf[:windowBytes]
		chunks = append(chunks, c.buildChunk(window))
		if stepBytes >= len(c.buf) {
			c.buf = nil
		} else {
			c.buf = c.buf[stepBytes:]
		}
		c.bufStartSec += c.cfg.StepSec
	}
	return chunks
}

// Flush emits any remaining partial window as a final, shorter chunk.
func (c *Chunker) Flush() *models.AudioChunk {
	if len(c.buf) == 0 {
		return nil
	}
	chunk := c.buildChunk(c.buf)
	c.buf = nil
	return &chunk
}

func (c *Chunker) buildChunk(window []byte) models.AudioChunk {
	bytes := window
	if c.nextIndex > 0 && c.header != nil {
		bytes = make([]byte, 0, len(c.header)+len(window))
		bytes = append(bytes, c.header...)
		bytes = append(bytes, window...)
	}
	durationSec := float64(len(window)) / c.windowBytesPerSec
	chunk := models.AudioChunk{
		Index:          c.nextIndex,
		StartOffsetSec: c.bufStartSec,
		EndOffsetSec:   c.bufStartSec + durationSec,
		ContainerMime:  "audio/webm;codecs=opus",
		Bytes:          bytes,
	}
	c.nextIndex++
	return chunk
}

// ToWire converts an AudioChunk to its base64 cross-boundary form.
func ToWire(chunk models.AudioChunk) models.AudioChunkWire {
	return models.AudioChunkWire{
		Index:          chunk.Index,
		StartOffsetSec: chunk.StartOffsetSec,
		EndOffsetSec:   chunk.EndOffsetSec,
		MimeType:       chunk.ContainerMime,
		ByteLength:     len(chunk.Bytes),
		Data:           base64.StdEncoding.EncodeToString(chunk.Bytes),
	}
}

// FromWire reverses ToWire.
func FromWire(wire models.AudioChunkWire) (models.AudioChunk, error) {
	data, err := base64.StdEncoding.DecodeString(wire.Data)
	if err != nil {
		return models.AudioChunk{}, err
	}
	return models.AudioChunk{
		Index:          wire.Index,
		StartOffsetSec: wire.StartOffsetSec,
		EndOffsetSec:   wire.EndOffsetSec,
		ContainerMime:  wire.MimeType,
		Bytes:          data,
	}, nil
}
