package sttbackend

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"caption-core/internal/config"
	"caption-core/internal/errs"
	"caption-core/internal/models"
)

// GoogleBatch implements Backend against Google Cloud Speech-to-Text's
// non-streaming Recognize RPC, one call per Mode B chunk. Grounded on
// the teacher's stt/google.Adapter, generalized from the streaming RPC
// to the batch one since AP's Mode B already produces self-contained,
// windowed audio.
type GoogleBatch struct {
	client *speech.Client
	cfg    config.STTConfig
}

// NewGoogleBatch constructs a GoogleBatch backend. Requires
// GOOGLE_APPLICATION_CREDENTIALS to be set in the environment, exactly
// as the teacher's adapter does.
func NewGoogleBatch(ctx context.Context, cfg config.STTConfig) (*GoogleBatch, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindServiceUnavailable, err, "creating google speech client")
	}
	return &GoogleBatch{client: client, cfg: cfg}, nil
}

// RecognizeChunk submits one chunk's bytes to Recognize and maps the
// response into a models.Transcript. Google's non-streaming Recognize
// does not return word timing unless EnableWordTimeOffsets is set,
// which this backend always requests so the Timeline Aligner's
// word-level path stays available in batch mode too.
func (g *GoogleBatch) RecognizeChunk(ctx context.Context, chunk models.AudioChunk) (models.Transcript, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:            encodingFor(chunk.ContainerMime),
			SampleRateHertz:     int32(g.cfg.SampleRateHz),
			LanguageCode:        g.cfg.LanguageCode,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: chunk.Bytes},
		},
	})
	if err != nil {
		return models.Transcript{}, errs.Wrap(errs.KindServerError, err, "google recognize failed")
	}

	return mergeResults(resp.Results), nil
}

// Close releases the underlying client connection.
func (g *GoogleBatch) Close() error {
	return g.client.Close()
}

func encodingFor(mime string) speechpb.RecognitionConfig_AudioEncoding {
	switch mime {
	case "audio/webm;codecs=opus":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// mergeResults concatenates every result's top alternative into one
// Transcript, since a single chunk may contain several recognized
// utterances that the Timeline Aligner treats as one window's output.
func mergeResults(results []*speechpb.SpeechRecognitionResult) models.Transcript {
	var t models.Transcript
	t.IsFinal = true

	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if t.Text != "" {
			t.Text += " "
		}
		t.Text += alt.Transcript
		t.Confidence = float64(alt.Confidence)

		for _, w := range alt.Words {
			t.Words = append(t.Words, models.Word{
				Text:     w.Word,
				StartSec: w.StartTime.AsDuration().Seconds(),
				EndSec:   w.EndTime.AsDuration().Seconds(),
			})
		}
	}
	return t
}
