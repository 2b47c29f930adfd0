// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"sync"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	"github.com/rapidaai/practice/pkg/commons"
)

// FrameChannelSize buffers ~1s of 16ms PCM frames between the socket reader
// and the session pump.
const FrameChannelSize = 64

// wsStream adapts a websocket connection carrying binary PCM frames into a
// CaptureStream. A background reader feeds the frames channel until the
// client disconnects or Close is called; the channel is closed by the reader
// on exit, which is how the session learns the stream ended.
type wsStream struct {
	logger    commons.Logger
	conn      *websocket.Conn
	frames    chan []byte
	closeOnce sync.Once
}

// NewWebsocketStream wraps an upgraded connection. Text messages and empty
// frames are ignored; only binary payloads are treated as audio.
func NewWebsocketStream(logger commons.Logger, conn *websocket.Conn) internal_type.CaptureStream {
	s := &wsStream{
		logger: logger,
		conn:   conn,
		frames: make(chan []byte, FrameChannelSize),
	}
	go s.runReader()
	return s
}

func (s *wsStream) runReader() {
	defer close(s.frames)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("capture websocket closed", "error", err.Error())
			}
			return
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		s.frames <- data
	}
}

func (s *wsStream) Frames() <-chan []byte {
	return s.frames
}

// Close shuts the connection; the reader then drains out and closes the
// frames channel. Safe to call multiple times.
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
