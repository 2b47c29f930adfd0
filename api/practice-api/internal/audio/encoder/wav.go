// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	internal_audio "github.com/rapidaai/practice/api/practice-api/internal/audio"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
)

// WAVMimeType is declared to consumers so exports get the right extension.
const WAVMimeType = "audio/wav"

// wavEncoder accumulates LINEAR16 PCM and renders a RIFF/WAVE container on
// Finalize. One encoder per recording attempt; Finalize is terminal.
type wavEncoder struct {
	mu        sync.Mutex
	cfg       internal_audio.Config
	pcm       bytes.Buffer
	finalized bool
}

// NewWAVEncoder returns the default payload encoder.
func NewWAVEncoder(cfg internal_audio.Config) internal_type.Encoder {
	return &wavEncoder{cfg: cfg}
}

func (e *wavEncoder) Write(pcm []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized {
		return fmt.Errorf("encoder already finalized")
	}
	_, err := e.pcm.Write(pcm)
	return err
}

// Finalize renders the WAV container. An attempt that captured no audio at
// all is an encoding failure — there is no payload to store.
func (e *wavEncoder) Finalize() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized {
		return nil, fmt.Errorf("encoder already finalized")
	}
	e.finalized = true

	if e.pcm.Len() == 0 {
		return nil, fmt.Errorf("no audio data to finalize")
	}
	return renderWAV(e.cfg, e.pcm.Bytes()), nil
}

func (e *wavEncoder) MimeType() string {
	return WAVMimeType
}

// renderWAV wraps raw PCM in a RIFF/WAVE header.
func renderWAV(cfg internal_audio.Config, pcmData []byte) []byte {
	var buf bytes.Buffer
	sampleRate := cfg.SampleRate
	channels := cfg.Channels
	bps := cfg.BytesPerSecond()

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(internal_audio.AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(internal_audio.AudioBytesPerSample*channels))
	binary.Write(&buf, binary.LittleEndian, uint16(internal_audio.AudioBitsPerSample))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)

	return buf.Bytes()
}
