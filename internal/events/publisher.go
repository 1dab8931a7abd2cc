// Package events mirrors aligned segments and interim transcripts onto
// Kafka for downstream consumers (search indexing, archival), separate
// from the Session Client/host callback path that drives the caption UI.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"caption-core/internal/config"
	"caption-core/internal/models"
	"caption-core/internal/observability/metrics"
	"caption-core/internal/schema"
)

// Publisher publishes segment and transcript events to separate Kafka topics.
type Publisher struct {
	writerSegment    *kafka.Writer
	writerTranscript *kafka.Writer
	principal        string
	topicSegment     string
	topicTranscript  string
	enabled          bool
	metrics          *metrics.Metrics
	validator        *schema.Validator
}

// New creates a Kafka event publisher from the resolved KafkaConfig. A
// disabled config (or one with no brokers) returns a Publisher that
// logs events instead of writing them, the same log-only fallback the
// teacher's events.New used for local/dev runs.
func New(cfg config.KafkaConfig) *Publisher {
	m := metrics.DefaultMetrics

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicSegment:    cfg.TopicSegment,
			topicTranscript: cfg.TopicTranscript,
			enabled:         false,
			metrics:         m,
			validator:       schema.New(),
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerSegment := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicSegment,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicSegment", cfg.TopicSegment).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("principal", cfg.Principal).
		Msg("kafka publisher initialized")

	return &Publisher{
		writerSegment:    writerSegment,
		writerTranscript: writerTranscript,
		principal:        cfg.Principal,
		topicSegment:     cfg.TopicSegment,
		topicTranscript:  cfg.TopicTranscript,
		enabled:          true,
		metrics:          m,
		validator:        schema.New(),
	}
}

// PublishSegment publishes an aligned, deduplicated segment (the
// Overlap Processor's output) to the segment topic.
func (p *Publisher) PublishSegment(ctx context.Context, key string, segment models.Segment) error {
	return p.publish(ctx, p.writerSegment, p.topicSegment, "segment", key, segment)
}

// PublishTranscript publishes an interim transcript (pre-alignment,
// pre-dedup) to the transcript topic, mirroring what the Session
// Client handed its callback.
func (p *Publisher) PublishTranscript(ctx context.Context, key string, transcript models.Transcript) error {
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, "transcript", key, transcript)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	if err := p.validator.Validate(event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("event failed schema validation")
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("failed to write to kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerSegment != nil {
		if e := p.writerSegment.Close(); e != nil {
			log.Error().Err(e).Msg("error closing segment writer")
			err = e
		}
	}
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("error closing transcript writer")
			err = e
		}
	}
	return err
}
