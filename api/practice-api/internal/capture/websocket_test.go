// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialCaptureStream stands up an upgrading server, dials it, and returns the
// server-side stream plus the client connection.
func dialCaptureStream(t *testing.T) (internal_type.CaptureStream, *websocket.Conn) {
	t.Helper()
	logger := newTestLogger(t)
	upgrader := websocket.Upgrader{}

	streams := make(chan internal_type.CaptureStream, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		streams <- NewWebsocketStream(logger, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case stream := <-streams:
		return stream, client
	case <-time.After(time.Second):
		t.Fatal("server never produced a stream")
		return nil, nil
	}
}

func TestWebsocketStreamDeliversBinaryFrames(t *testing.T) {
	stream, client := dialCaptureStream(t)
	defer stream.Close()

	frameA := TonePCM(1000, 256)
	frameB := TonePCM(-1000, 256)
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, frameA))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("ignored")))
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, frameB))

	for _, expected := range [][]byte{frameA, frameB} {
		select {
		case frame := <-stream.Frames():
			assert.Equal(t, expected, frame)
		case <-time.After(time.Second):
			t.Fatal("frame never arrived")
		}
	}
}

func TestWebsocketStreamEndsWhenClientCloses(t *testing.T) {
	stream, client := dialCaptureStream(t)
	defer stream.Close()

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	client.Close()

	select {
	case _, open := <-stream.Frames():
		assert.False(t, open, "frames channel must close when the client disconnects")
	case <-time.After(time.Second):
		t.Fatal("frames channel never closed")
	}
}

func TestWebsocketStreamCloseIsIdempotent(t *testing.T) {
	stream, _ := dialCaptureStream(t)
	require.NoError(t, stream.Close())
	stream.Close()

	select {
	case _, open := <-stream.Frames():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("frames channel never closed after Close")
	}
}
