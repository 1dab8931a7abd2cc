// Package sttbackend provides the two recognition-service bindings
// the rest of the core is written against: a streaming backend
// (wrapping the Session Client's WebSocket wire protocol) and a batch
// backend (Google Cloud Speech's non-streaming Recognize, called once
// per windowed chunk from the Audio Pipeline's Mode B).
package sttbackend

import (
	"context"

	"caption-core/internal/models"
)

// Backend is the chunk-recognition surface shared by GoogleBatch and
// Streaming. No factory builds a Backend from configuration; each
// caller picks a constructor directly.
type Backend interface {
	// RecognizeChunk is used by the batch backend: it submits one
	// self-contained audio chunk and returns its transcript
	// synchronously. Streaming backends do not implement meaningful
	// behavior for this method (see Streaming).
	RecognizeChunk(ctx context.Context, chunk models.AudioChunk) (models.Transcript, error)
}
