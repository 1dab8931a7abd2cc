package sttbackend

import (
	"sync"
	"time"

	"caption-core/internal/models"
	"caption-core/internal/sessionclient"
)

// SimulatedUtterance is a canned utterance the Mock backend plays back:
// a sequence of growing interim transcripts followed by one final.
type SimulatedUtterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultUtterances cycles through a handful of sample utterances so
// repeated Mock sessions don't all say the same thing.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"I want", "I want to", "I want to cancel"},
		Final:      "I want to cancel my subscription",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"Yes", "Yes please"},
		Final:      "Yes please go ahead",
		Confidence: 0.97,
	},
	{
		Partials:   []string{"Can you", "Can you help", "Can you help me with"},
		Final:      "Can you help me with my account",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"I've been", "I've been waiting", "I've been waiting for"},
		Final:      "I've been waiting for over an hour",
		Confidence: 0.89,
	},
	{
		Partials:   []string{"Thank you"},
		Final:      "Thank you very much",
		Confidence: 0.98,
	},
}

var (
	utteranceCounter int
	counterMu        sync.Mutex
)

func nextUtterance() SimulatedUtterance {
	counterMu.Lock()
	defer counterMu.Unlock()
	u := DefaultUtterances[utteranceCounter%len(DefaultUtterances)]
	utteranceCounter++
	return u
}

// Mock simulates a streaming recognition backend without any cloud
// credentials: every call to SendAudio advances through the
// utterance's partials, then emits one final transcript; calls after
// the final emit nothing. Each Mock plays one utterance, and the next
// NewMock takes the next one from DefaultUtterances. Grounded on the teacher's stt/mock
// adapter, generalized from its OnPartial/OnFinal/OnEndOfUtterance
// callback shape onto models.Transcript/sessionclient.Callback.
type Mock struct {
	cb sessionclient.Callback

	mu           sync.Mutex
	utterance    SimulatedUtterance
	partialIndex int
	finalSent    bool
	closed       bool
}

// NewMock constructs a Mock backend.
func NewMock() *Mock {
	return &Mock{utterance: nextUtterance()}
}

// Start wires the callback that receives simulated transcripts.
func (m *Mock) Start(cb sessionclient.Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
	cb.OnStateChange(models.StateConnected)
}

// SendAudio simulates receiving one frame of audio: it advances the
// partial sequence, or emits a final once every partial has fired.
func (m *Mock) SendAudio(models.AudioFrame) error {
	m.mu.Lock()
	if m.closed || m.cb == nil {
		m.mu.Unlock()
		return nil
	}

	if m.partialIndex < len(m.utterance.Partials) {
		text := m.utterance.Partials[m.partialIndex]
		m.partialIndex++
		cb := m.cb
		m.mu.Unlock()

		go func() {
			time.Sleep(50 * time.Millisecond)
			cb.OnTranscript(models.Transcript{Text: text, IsFinal: false, RecvTimestamp: time.Now()})
		}()
		return nil
	}

	if !m.finalSent {
		m.finalSent = true
		utt := m.utterance
		cb := m.cb
		m.mu.Unlock()

		go func() {
			time.Sleep(100 * time.Millisecond)
			cb.OnTranscript(models.Transcript{Text: utt.Final, IsFinal: true, Confidence: utt.Confidence, RecvTimestamp: time.Now()})
		}()
		return nil
	}

	m.mu.Unlock()
	return nil
}

// Close ends the mock session, emitting a final transcript first if
// the stream closed before the simulated utterance naturally
// completed.
func (m *Mock) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	if !m.finalSent && m.cb != nil {
		m.finalSent = true
		utt := m.utterance
		cb := m.cb
		m.mu.Unlock()

		go func() {
			time.Sleep(100 * time.Millisecond)
			cb.OnTranscript(models.Transcript{Text: utt.Final, IsFinal: true, Confidence: utt.Confidence, RecvTimestamp: time.Now()})
		}()
		return nil
	}

	m.mu.Unlock()
	return nil
}
