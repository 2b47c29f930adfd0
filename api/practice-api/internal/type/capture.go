// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"

	internal_audio "github.com/rapidaai/practice/api/practice-api/internal/audio"
)

// CaptureConfig carries the recognized capture knobs. The DSP flags are
// declarative hints forwarded to the capturing client; changing them changes
// capture quality but not the pipeline's control flow.
type CaptureConfig struct {
	Audio            internal_audio.Config
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultCaptureConfig mirrors the browser constraints the product ships with:
// echo cancellation, noise suppression and auto gain on, 44.1kHz mono.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Audio:            internal_audio.PRACTICE_INTERNAL_AUDIO_CONFIG,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// CaptureStream is one live audio input. Frames yields raw LINEAR16 PCM
// chunks until the stream ends; the channel is closed when the producer goes
// away. Close releases the underlying transport and is safe to call more than
// once.
type CaptureStream interface {
	Frames() <-chan []byte
	Close() error
}

// CaptureSource acquires the audio input for a slot. Open is the single
// suspension point of the pipeline: it may block until the capturing client
// attaches (the permission-prompt analog) and must honor ctx cancellation.
// Acquisition failures are reported as errors wrapping ErrCaptureUnavailable.
type CaptureSource interface {
	Open(ctx context.Context, slot SlotID, cfg CaptureConfig) (CaptureStream, error)
}

// Encoder turns the PCM stream of one recording attempt into a finalized,
// playable payload. Implementations are private per attempt and never shared.
type Encoder interface {
	// Write appends a PCM chunk to the recording.
	Write(pcm []byte) error
	// Finalize renders the container and returns the payload exactly once.
	Finalize() ([]byte, error)
	// MimeType declares the payload format to the consumer.
	MimeType() string
}

// EncoderFactory builds a fresh encoder for one recording attempt.
type EncoderFactory func(cfg internal_audio.Config) Encoder
