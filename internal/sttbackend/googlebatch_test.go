package sttbackend

import (
	"testing"

	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"caption-core/internal/models"
)

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		mime     string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS},
		{"audio/unknown", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
		{"", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := encodingFor(tt.mime); got != tt.expected {
				t.Errorf("encodingFor(%q) = %v, want %v", tt.mime, got, tt.expected)
			}
		})
	}
}

func TestMergeResults_ConcatenatesAlternatives(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "hello", Confidence: 0.9},
			},
		},
		{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "world", Confidence: 0.95},
			},
		},
	}

	got := mergeResults(results)
	if got.Text != "hello world" {
		t.Errorf("expected 'hello world', got %q", got.Text)
	}
	if !got.IsFinal {
		t.Error("expected IsFinal true for batch recognize results")
	}
}

func TestMergeResults_SkipsEmptyAlternatives(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: nil},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "only this"}}},
	}
	got := mergeResults(results)
	if got.Text != "only this" {
		t.Errorf("expected 'only this', got %q", got.Text)
	}
}

func TestStreaming_RecognizeChunk_AlwaysFails(t *testing.T) {
	s := &Streaming{}
	_, err := s.RecognizeChunk(nil, models.AudioChunk{})
	if err == nil {
		t.Error("expected error from streaming backend RecognizeChunk")
	}
}
