// Package models defines the core data types shared by the credential
// store, audio pipeline, session client, timeline aligner and overlap
// processor: frames, transcripts, segments and their wire-export events.
package models

import "time"

// Word is a single recognized word with timing relative to the audio
// the word was recognized from (session-start-of-audio for streaming,
// chunk-start for batch).
type Word struct {
	Text      string  `json:"text"`
	StartSec  float64 `json:"startSec"`
	EndSec    float64 `json:"endSec"`
}

// Transcript is one interim or final result emitted by the Session
// Client. Words is empty when the backend does not provide word-level
// timing; the Timeline Aligner falls back to elapsed-time coverage in
// that case.
type Transcript struct {
	UtteranceID   string    `json:"utteranceId"`
	Text          string    `json:"text"`
	IsFinal       bool      `json:"isFinal"`
	Confidence    float64   `json:"confidence"`
	Words         []Word    `json:"words,omitempty"`
	RecvTimestamp time.Time `json:"recvTimestamp"`
}

// AudioFrame is one 20ms block of PCM audio produced by the Audio
// Pipeline's streaming mode (Mode A). Index is strictly increasing and
// never reused within a session.
type AudioFrame struct {
	Index        uint64
	SampleCount  int
	SampleRateHz int
	Payload      []byte // signed 16-bit little-endian mono PCM, len == SampleCount*2
}

// AudioChunk is one windowed, container-wrapped block of compressed
// audio produced by the Audio Pipeline's batch mode (Mode B).
type AudioChunk struct {
	Index           uint64
	StartOffsetSec  float64
	EndOffsetSec    float64
	ContainerMime   string
	Bytes           []byte
}

// AudioChunkWire is the cross-context-transferable form of AudioChunk:
// base64 bytes plus the metadata needed to rebuild it, per spec's
// requirement that opaque binary containers not rely on structured
// clone across execution boundaries.
type AudioChunkWire struct {
	Index          uint64 `json:"index"`
	StartOffsetSec float64 `json:"startOffsetSec"`
	EndOffsetSec   float64 `json:"endOffsetSec"`
	MimeType       string `json:"mimeType"`
	ByteLength     int    `json:"byteLength"`
	Data           string `json:"data"` // base64
}

// Segment is a caption-ready, video-time-aligned span of text, the
// output of the Timeline Aligner (streaming) or the Overlap Processor
// (batch).
type Segment struct {
	StartSec     float64   `json:"startSec"`
	EndSec       float64   `json:"endSec"`
	Text         string    `json:"text"`
	Language     string    `json:"language,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`
	ArrivalTime  time.Time `json:"arrivalTime"`
}

// EncryptedBlob is the at-rest representation of an encrypted secret:
// salt || iv || ciphertext||tag, base64-encoded when persisted.
type EncryptedBlob struct {
	Salt       [16]byte
	IV         [12]byte
	Ciphertext []byte
}

// SessionState is the Session Client's connection lifecycle state.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateClosing
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the state is one the session does not
// leave without an explicit reconnect/new-session decision.
func (s SessionState) IsTerminal() bool {
	return s == StateDisconnected || s == StateErrored
}

// SessionStats tracks counters surfaced via the debug/introspection
// route and via Prometheus.
type SessionStats struct {
	FramesSent      uint64
	BytesSent       uint64
	FramesDropped   uint64
	ReconnectCount  int
	ErrorCount      int
}
