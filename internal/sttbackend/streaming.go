package sttbackend

import (
	"context"

	"caption-core/internal/config"
	"caption-core/internal/errs"
	"caption-core/internal/models"
	"caption-core/internal/sessionclient"
)

// Streaming wraps a sessionclient.Client behind the Backend interface.
// Its RecognizeChunk is not meaningful — streaming recognition is
// driven by SendAudio/the session's own Callback, not by
// request/response chunks — so it always fails with InvalidInput,
// steering callers toward the real streaming API (SendAudio/Run).
type Streaming struct {
	client *sessionclient.Client
}

// NewStreaming builds a Streaming backend around a session client
// constructed with the given endpoint and auth token.
func NewStreaming(cfg config.SessionConfig, endpoint, authToken string, callback sessionclient.Callback) *Streaming {
	return &Streaming{client: sessionclient.New(cfg, endpoint, authToken, callback)}
}

// Client exposes the underlying session client for callers that drive
// it directly (Run/SendAudio/Close), the normal streaming path.
func (s *Streaming) Client() *sessionclient.Client {
	return s.client
}

// RecognizeChunk always fails: see type doc.
func (s *Streaming) RecognizeChunk(ctx context.Context, chunk models.AudioChunk) (models.Transcript, error) {
	return models.Transcript{}, errs.New(errs.KindInvalidInput, "streaming backend does not support chunk-based recognition")
}
