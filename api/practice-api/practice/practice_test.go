// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package practice_api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_capture "github.com/rapidaai/practice/api/practice-api/internal/capture"
	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
	"github.com/rapidaai/practice/pkg/connectors"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-practice"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)
	return logger
}

// newTestServer stands the full route surface up over an in-memory database.
func newTestServer(t *testing.T, attachTimeoutMs int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := newTestLogger(t)

	db, err := connectors.NewSqliteConnector(configs.SqliteConfig{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.AppConfig{
		Name:                 "practice-api-test",
		Version:              "test",
		Host:                 "127.0.0.1",
		Port:                 0,
		LogLevel:             "debug",
		SqliteConfig:         configs.SqliteConfig{Path: ":memory:"},
		CaptureSampleRate:    44100,
		CaptureAttachTimeout: attachTimeoutMs,
	}

	api, err := NewPracticeApi(cfg, logger, db)
	require.NoError(t, err)
	t.Cleanup(api.Shutdown)

	engine := gin.New()
	apiv1 := engine.Group("v1/practice")
	{
		apiv1.POST("/session", api.CreateSession)
		apiv1.GET("/session/:sessionId", api.GetSession)
		apiv1.DELETE("/session/:sessionId", api.DeleteSession)
		apiv1.POST("/session/:sessionId/submit", api.Submit)
		apiv1.GET("/session/:sessionId/recordings", api.ListRecordings)
		apiv1.POST("/session/:sessionId/slot/:slotId/start", api.StartRecording)
		apiv1.POST("/session/:sessionId/slot/:slotId/stop", api.StopRecording)
		apiv1.POST("/session/:sessionId/slot/:slotId/re-record", api.ReRecord)
		apiv1.GET("/session/:sessionId/slot/:slotId/payload", api.GetPayload)
		apiv1.GET("/session/:sessionId/slot/:slotId/ingest", api.Ingest)
	}

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(data)
	}
	resp, err := http.Post(url, "application/json", payload)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &decoded)
	}
	return resp, decoded
}

func createSession(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, server.URL+"/v1/practice/session", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t, 200)
	sessionID := createSession(t, server)
	base := server.URL + "/v1/practice/session/" + sessionID

	resp, err := http.Get(base)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No client ever attaches audio: acquisition times out as unavailable.
	resp, body := postJSON(t, base+"/slot/q1/start", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errMsg, _ := body["error"].(string)
	assert.Contains(t, errMsg, "microphone unavailable")

	req, _ := http.NewRequest(http.MethodDelete, base, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	server := newTestServer(t, 200)
	resp, _ := postJSON(t, server.URL+"/v1/practice/session/nope/slot/q1/start", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordAndSubmitFlow(t *testing.T) {
	server := newTestServer(t, 3000)
	sessionID := createSession(t, server)
	base := server.URL + "/v1/practice/session/" + sessionID

	// The start command blocks until audio attaches; run it in the background
	// the way a browser would issue it.
	startResults := make(chan int, 1)
	go func() {
		resp, err := http.Post(base+"/slot/q1/start", "application/json", nil)
		if err != nil {
			startResults <- -1
			return
		}
		resp.Body.Close()
		startResults <- resp.StatusCode
	}()

	// Give the start command time to register its waiter, then attach.
	time.Sleep(200 * time.Millisecond)
	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/slot/q1/ingest"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage,
			internal_capture.TonePCM(8000, 512)))
	}

	select {
	case status := <-startResults:
		require.Equal(t, http.StatusOK, status)
	case <-time.After(5 * time.Second):
		t.Fatal("start command never returned")
	}

	// Let the frames reach the pump before finalizing.
	time.Sleep(100 * time.Millisecond)
	resp, body := postJSON(t, base+"/slot/q1/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hasPayload, _ := body["hasPayload"].(bool)
	assert.True(t, hasPayload)

	resp, err = http.Get(base + "/slot/q1/payload")
	require.NoError(t, err)
	wav, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
	require.Greater(t, len(wav), 44)
	assert.Equal(t, "RIFF", string(wav[0:4]))

	resp, body = postJSON(t, base+"/submit", map[string]any{"rating": 5, "notes": "done"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ids, _ := body["recordingIds"].([]any)
	require.Len(t, ids, 1)

	// Submission tears the session down.
	resp, err = http.Get(base)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The archive keeps the submitted recording, payload excluded.
	resp, err = http.Get(base + "/recordings")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Recordings []map[string]any `json:"recordings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Recordings, 1)
	assert.Equal(t, "q1", listing.Recordings[0]["slotId"])
	assert.Equal(t, float64(5), listing.Recordings[0]["rating"])
}

func TestSubmitValidation(t *testing.T) {
	server := newTestServer(t, 200)
	sessionID := createSession(t, server)
	base := fmt.Sprintf("%s/v1/practice/session/%s", server.URL, sessionID)

	// Rating out of range.
	resp, _ := postJSON(t, base+"/submit", map[string]any{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Rating missing entirely.
	resp, _ = postJSON(t, base+"/submit", map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Valid rating but nothing recorded.
	resp, body := postJSON(t, base+"/submit", map[string]any{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errMsg, _ := body["error"].(string)
	assert.Contains(t, errMsg, "nothing recorded")
}

func TestIngestWithoutPendingStartIsRejected(t *testing.T) {
	server := newTestServer(t, 200)
	sessionID := createSession(t, server)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/v1/practice/session/" + sessionID + "/slot/q1/ingest"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The server closes the socket with a policy violation since no start is
	// waiting for audio.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
