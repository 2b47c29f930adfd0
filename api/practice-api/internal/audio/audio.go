// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

// Config describes a raw PCM stream: LINEAR16 little-endian at the given
// sample rate and channel count. Everything in the pipeline — ingest, the
// analyser and the encoder — agrees on one Config per recording attempt.
type Config struct {
	SampleRate uint32
	Channels   uint16
}

// NewLinear44khzMonoConfig is the capture format practice sessions record in.
func NewLinear44khzMonoConfig() Config {
	return Config{SampleRate: 44100, Channels: 1}
}

// PRACTICE_INTERNAL_AUDIO_CONFIG is the internal format every slot records in
// unless the session overrides it.
var PRACTICE_INTERNAL_AUDIO_CONFIG = NewLinear44khzMonoConfig()

// BytesPerSecond returns the PCM byte rate for this config.
func (c Config) BytesPerSecond() int {
	return int(c.SampleRate) * int(c.Channels) * AudioBytesPerSample
}

// FrameAlign rounds a byte count down to a whole number of sample frames.
func (c Config) FrameAlign(n int) int {
	frameSize := AudioBytesPerSample * int(c.Channels)
	return (n / frameSize) * frameSize
}
