// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-uploader"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)
	return logger
}

func TestUploadPostsMultipartSubmission(t *testing.T) {
	type received struct {
		apiKey   string
		fields   map[string]string
		filename string
		audio    []byte
	}
	got := make(chan received, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		audio, _ := io.ReadAll(file)

		got <- received{
			apiKey: r.Header.Get("x-api-key"),
			fields: map[string]string{
				"sessionId": r.FormValue("sessionId"),
				"slotId":    r.FormValue("slotId"),
				"rating":    r.FormValue("rating"),
				"notes":     r.FormValue("notes"),
				"mimeType":  r.FormValue("mimeType"),
			},
			filename: header.Filename,
			audio:    audio,
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u := NewUploader(configs.UploaderConfig{
		Endpoint: server.URL,
		ApiKey:   "secret-key",
	}, newTestLogger(t))

	err := u.Upload(context.Background(), Submission{
		SessionID: "sess-1",
		SlotID:    "q1",
		Rating:    5,
		Notes:     "done",
		MimeType:  "audio/wav",
		Payload:   []byte("RIFF-payload"),
	})
	require.NoError(t, err)

	rec := <-got
	assert.Equal(t, "secret-key", rec.apiKey)
	assert.Equal(t, "sess-1", rec.fields["sessionId"])
	assert.Equal(t, "q1", rec.fields["slotId"])
	assert.Equal(t, "5", rec.fields["rating"])
	assert.Equal(t, "audio/wav", rec.fields["mimeType"])
	assert.Equal(t, []byte("RIFF-payload"), rec.audio)
	assert.Contains(t, rec.filename, "answer-q1")
}

func TestUploadSurfacesServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	u := NewUploader(configs.UploaderConfig{Endpoint: server.URL}, newTestLogger(t))
	err := u.Upload(context.Background(), Submission{SessionID: "sess-1", SlotID: "q1"})
	assert.Error(t, err)
}

func TestMissingEndpointDisablesUploads(t *testing.T) {
	u := NewUploader(configs.UploaderConfig{}, newTestLogger(t))
	assert.NoError(t, u.Upload(context.Background(), Submission{SessionID: "sess-1"}))
}

func TestExtensionFor(t *testing.T) {
	// The wav mapping comes from the host mime table, so only its shape is
	// asserted; unknown types always fall back to .bin.
	ext := extensionFor("audio/wav")
	assert.True(t, len(ext) > 1 && ext[0] == '.')
	assert.Equal(t, ".bin", extensionFor("application/x-unknown-thing"))
}
