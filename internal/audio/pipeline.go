// Package audio implements the Audio Pipeline (AP): resampling raw
// capture into fixed-size 16kHz mono PCM frames for streaming
// recognition (Mode A), and windowing compressed container audio into
// overlapping chunks for batch recognition (Mode B).
package audio

import (
	"caption-core/internal/config"
	"caption-core/internal/errs"
)

// FrameSink receives Mode A frames as they are produced. Non-blocking:
// if the sink is not ready to accept a frame, the pipeline drops it
// and increments its drop counter rather than blocking the capture
// source, per spec §4.2's backpressure rule.
type FrameSink interface {
	// TryAccept returns false if the frame was rejected (sink full).
	TryAccept(frame ModeAFrame) bool
}

// ModeAFrame is one resampled, downmixed frame ready for a streaming
// recognizer: 16-bit little-endian mono PCM at the pipeline's output
// rate.
type ModeAFrame struct {
	Index   uint64
	Samples []int16
}

// Resampler converts a captured PCM buffer at inputRateHz to a
// sequence of int16 frames at the pipeline's fixed output rate, using
// linear interpolation and channel-0 downmix. Grounded in the
// teacher's segment.SegmentLimits-style guarded-state object: a small
// struct that owns a growing buffer and flushes fixed-size pieces.
type Resampler struct {
	cfg             config.AudioConfig
	inputRateHz     int
	inputChannels   int
	samplesPerFrame int

	carry     []float64 // resampled mono samples not yet framed
	nextIndex uint64
}

// NewResampler builds a Resampler that emits frames of cfg.FrameMs
// duration at cfg.OutputSampleRateHz, given the true input format.
func NewResampler(cfg config.AudioConfig, inputRateHz, inputChannels int) (*Resampler, error) {
	if inputRateHz <= 0 {
		return nil, errs.New(errs.KindInvalidInput, "input sample rate must be positive")
	}
	if inputChannels <= 0 {
		return nil, errs.New(errs.KindInvalidInput, "input channel count must be positive")
	}
	samplesPerFrame := cfg.OutputSampleRateHz * cfg.FrameMs / 1000
	if samplesPerFrame <= 0 {
		return nil, errs.New(errs.KindInvalidInput, "frame duration too short for output rate")
	}
	return &Resampler{
		cfg:             cfg,
		inputRateHz:     inputRateHz,
		inputChannels:   inputChannels,
		samplesPerFrame: samplesPerFrame,
	}, nil
}

// Push resamples one buffer of interleaved float32 samples (range
// [-1,1], inputChannels-interleaved) and returns any whole frames it
// completed. Leftover samples are carried to the next call.
func (r *Resampler) Push(interleaved []float32) []ModeAFrame {
	mono := r.downmix(interleaved)
	resampled := r.resample(mono)

	r.carry = append(r.carry, resampled...)

	var frames []ModeAFrame
	for len(r.carry) >= r.samplesPerFrame {
		chunk := r.carry[:r.samplesPerFrame]
		frames = append(frames, ModeAFrame{
			Index:   r.nextIndex,
			Samples: floatToInt16(chunk),
		})
		r.nextIndex++
		r.carry = r.carry[r.samplesPerFrame:]
	}
	return frames
}

// downmix takes channel 0 of an interleaved buffer as the mono
// signal; samples on the other channels are discarded.
func (r *Resampler) downmix(interleaved []float32) []float64 {
	n := len(interleaved) / r.inputChannels
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		mono[i] = float64(interleaved[i*r.inputChannels])
	}
	return mono
}

// resample performs linear-interpolation resampling from inputRateHz
// to cfg.OutputSampleRateHz.
func (r *Resampler) resample(mono []float64) []float64 {
	if r.inputRateHz == r.cfg.OutputSampleRateHz {
		return mono
	}
	ratio := float64(r.inputRateHz) / float64(r.cfg.OutputSampleRateHz)
	outLen := int(float64(len(mono)) / ratio)
	out := make([]float64, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		lo := int(srcPos)
		frac := srcPos - float64(lo)
		hi := lo + 1
		if hi >= len(mono) {
			hi = len(mono) - 1
		}
		if lo >= len(mono) {
			lo = len(mono) - 1
		}
		out[i] = mono[lo]*(1-frac) + mono[hi]*frac
	}
	return out
}

// floatToInt16 clamps and scales [-1,1] float samples to int16 range.
func floatToInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// EncodePCM16LE serializes a frame's samples as little-endian bytes,
// the wire representation the Session Client sends over the
// WebSocket.
func EncodePCM16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
