// Package logging builds per-session/per-segment child loggers, used
// by the Caption Coordinator, so a single sessionId/segmentId pair can
// be grepped across its log lines.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WithSession returns a logger tagged with a session ID.
func WithSession(sessionID string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Logger()
}

// WithSegment returns a logger tagged with a session and segment ID.
func WithSegment(sessionID, segmentID string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Str("segmentId", segmentID).
		Logger()
}

// WithBackend returns a logger tagged with session, segment and the
// STT backend provider handling them (spec's STTConfig.Provider).
func WithBackend(sessionID, segmentID, provider string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Str("segmentId", segmentID).
		Str("sttProvider", provider).
		Logger()
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}
