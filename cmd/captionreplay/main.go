// Command captionreplay drives the batch captioning path (Audio
// Pipeline Mode B -> Google Cloud Speech Recognize -> Timeline Aligner
// -> Overlap Processor) against a local WAV file, the Go equivalent of
// uploading a pre-recorded file to a captioned video player. It is the
// file-driven harness replacing the old protobuf-streaming test
// client, since the core no longer carries a custom gRPC audio
// stream.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"caption-core/internal/audio"
	"caption-core/internal/config"
	"caption-core/internal/events"
	"caption-core/internal/models"
	"caption-core/internal/overlap"
	"caption-core/internal/sttbackend"
	"caption-core/internal/timeline"
)

const wavHeaderSize = 44

// fixedRatePlayerClock simulates a video player whose position
// advances exactly with the chunks submitted so far, since a replay
// harness has no real player to query.
type fixedRatePlayerClock struct {
	elapsed float64
}

func (c *fixedRatePlayerClock) VideoCurrentTime() float64 { return c.elapsed }

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Path to WAV file")
	language := flag.String("language", "en-US", "BCP-47 language code")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("not a valid WAV file")
	}

	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])
	log.Printf("wav file: sampleRate=%d bitsPerSample=%d", sampleRate, bitsPerSample)

	body, err := io.ReadAll(f)
	if err != nil {
		log.Fatalf("failed to read audio body: %v", err)
	}
	// Re-attach the header so the chunker can splice it onto every
	// window, the same container-repair trick Mode B uses for
	// streamed compressed audio.
	fullFile := append(append([]byte{}, header...), body...)

	cfg := config.Load()
	cfg.STT.LanguageCode = *language

	bytesPerSec := float64(sampleRate) * float64(bitsPerSample) / 8
	chunker := audio.NewChunker(cfg.Audio, bytesPerSec, wavHeaderSize)

	chunks := chunker.Push(fullFile)
	if last := chunker.Flush(); last != nil {
		chunks = append(chunks, *last)
	}
	log.Printf("windowed into %d chunks (window=%.1fs step=%.1fs)", len(chunks), cfg.Audio.WindowSec, cfg.Audio.StepSec)

	ctx := context.Background()
	backend, err := sttbackend.NewGoogleBatch(ctx, cfg.STT)
	if err != nil {
		log.Fatalf("failed to create recognition backend: %v", err)
	}
	defer backend.Close()

	clock := &fixedRatePlayerClock{}
	aligner := timeline.NewStreaming(cfg.Timeline, clock)
	processor := overlap.New(cfg.Overlap)
	publisher := events.New(cfg.Kafka)
	defer publisher.Close()

	var allSegments []models.Segment
	for _, chunk := range chunks {
		chunk.ContainerMime = "audio/wav"
		transcript, err := backend.RecognizeChunk(ctx, chunk)
		if err != nil {
			log.Printf("chunk %d: recognize failed: %v", chunk.Index, err)
			continue
		}

		clock.elapsed = chunk.EndOffsetSec
		seg := aligner.AlignBatchChunk(transcript, chunk.EndOffsetSec-chunk.StartOffsetSec)

		deduped := processor.Process([]models.Segment{seg}, chunk.StartOffsetSec)
		allSegments = append(allSegments, deduped...)

		for _, s := range deduped {
			if err := publisher.PublishSegment(ctx, fmt.Sprintf("chunk-%d", chunk.Index), s); err != nil {
				log.Printf("chunk %d: publish failed: %v", chunk.Index, err)
			}
		}
	}

	merged := overlap.MergeBrokenSentences(cfg.Overlap, allSegments, overlap.LanguageAuto)
	for _, s := range merged {
		fmt.Printf("[%6.2f - %6.2f] %s\n", s.StartSec, s.EndSec, s.Text)
	}
}
