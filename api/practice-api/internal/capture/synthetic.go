// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"encoding/binary"
	"sync"

	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
)

// ChannelStream is an in-process CaptureStream fed by hand. Sessions under
// test push frames directly instead of going through a transport.
type ChannelStream struct {
	frames    chan []byte
	closeOnce sync.Once
}

func NewChannelStream(buffer int) *ChannelStream {
	if buffer <= 0 {
		buffer = FrameChannelSize
	}
	return &ChannelStream{frames: make(chan []byte, buffer)}
}

// Push feeds one PCM frame. Must not be called after End/Close.
func (s *ChannelStream) Push(pcm []byte) {
	s.frames <- pcm
}

// End signals a clean end of audio without an explicit Close.
func (s *ChannelStream) End() {
	s.closeOnce.Do(func() { close(s.frames) })
}

func (s *ChannelStream) Frames() <-chan []byte {
	return s.frames
}

func (s *ChannelStream) Close() error {
	s.End()
	return nil
}

// TonePCM renders n samples of a constant-amplitude LINEAR16 signal — enough
// to drive the analyser deterministically without a real microphone.
func TonePCM(amplitude int16, samples int) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(amplitude))
	}
	return pcm
}

// StaticSource hands out a fixed stream on Open — the granted-permission
// path in tests.
type StaticSource struct {
	mu      sync.Mutex
	streams []internal_type.CaptureStream
}

// NewStaticSource queues streams to hand out, one per Open, in order.
func NewStaticSource(streams ...internal_type.CaptureStream) *StaticSource {
	return &StaticSource{streams: streams}
}

func (s *StaticSource) Open(ctx context.Context, slot internal_type.SlotID, cfg internal_type.CaptureConfig) (internal_type.CaptureStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) == 0 {
		return nil, internal_type.ErrCaptureUnavailable
	}
	stream := s.streams[0]
	s.streams = s.streams[1:]
	return stream, nil
}

// ErrorSource always fails acquisition — the denied-permission path.
type ErrorSource struct {
	Err error
}

func NewErrorSource(err error) *ErrorSource {
	if err == nil {
		err = internal_type.ErrCaptureUnavailable
	}
	return &ErrorSource{Err: err}
}

func (s *ErrorSource) Open(ctx context.Context, slot internal_type.SlotID, cfg internal_type.CaptureConfig) (internal_type.CaptureStream, error) {
	return nil, s.Err
}
