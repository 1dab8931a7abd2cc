package events

import (
	"context"
	"testing"
	"time"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.KafkaConfig
	}{
		{"disabled", config.KafkaConfig{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", config.KafkaConfig{Enabled: true, Brokers: []string{}}},
		{"empty brokers", config.KafkaConfig{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerSegment != nil {
				t.Error("expected nil segment writer when disabled")
			}
			if p.writerTranscript != nil {
				t.Error("expected nil transcript writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := config.KafkaConfig{
		Enabled:         false,
		Brokers:         []string{"localhost:9092"},
		TopicSegment:    "test.segment",
		TopicTranscript: "test.transcript",
		Principal:       "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicSegment != "test.segment" {
		t.Errorf("expected topic segment 'test.segment', got %s", p.topicSegment)
	}
	if p.topicTranscript != "test.transcript" {
		t.Errorf("expected topic transcript 'test.transcript', got %s", p.topicTranscript)
	}
}

func TestPublisher_PublishSegment_Disabled(t *testing.T) {
	p := New(config.KafkaConfig{Enabled: false})

	segment := models.Segment{Text: "hello world", StartSec: 0, EndSec: 1, ArrivalTime: time.Unix(0, 0)}
	err := p.PublishSegment(context.Background(), "test-key", segment)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishTranscript_Disabled(t *testing.T) {
	p := New(config.KafkaConfig{Enabled: false})

	transcript := models.Transcript{Text: "hello world", RecvTimestamp: time.Unix(0, 0)}
	err := p.PublishTranscript(context.Background(), "test-key", transcript)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(config.KafkaConfig{Enabled: false})

	err := p.Close()
	if err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{
		writerSegment:    nil,
		writerTranscript: nil,
	}

	err := p.Close()
	if err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}

func TestPublisher_PublishSegment_ValidEvent(t *testing.T) {
	p := New(config.KafkaConfig{
		Enabled:      false,
		TopicSegment: "test.segment",
		Principal:    "test-svc",
	})

	segment := models.Segment{
		Text:        "hello world",
		StartSec:    1.5,
		EndSec:      3.2,
		ArrivalTime: time.Unix(0, 0),
	}

	err := p.PublishSegment(context.Background(), "seg-123", segment)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestPublisher_PublishTranscript_ValidEvent(t *testing.T) {
	p := New(config.KafkaConfig{
		Enabled:         false,
		TopicTranscript: "test.transcript",
		Principal:       "test-svc",
	})

	transcript := models.Transcript{
		UtteranceID:   "utt-1",
		Text:          "hello world",
		IsFinal:       true,
		RecvTimestamp: time.Unix(0, 0),
	}

	err := p.PublishTranscript(context.Background(), "utt-1", transcript)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
