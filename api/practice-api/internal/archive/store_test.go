// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_archive

import (
	"context"
	"testing"

	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
	"github.com/rapidaai/practice/pkg/connectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-archive"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)

	db, err := connectors.NewSqliteConnector(configs.SqliteConfig{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, logger)
	require.NoError(t, err)
	return store
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payload := []byte("RIFF....WAVE")
	id, err := store.Save(ctx, &Recording{
		SessionID: "sess-1",
		SlotID:    "q1",
		MimeType:  "audio/wav",
		Duration:  7,
		Rating:    4,
		Notes:     "solid take",
		Payload:   payload,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, "q1", rec.SlotID)
	assert.Equal(t, "audio/wav", rec.MimeType)
	assert.Equal(t, 7, rec.Duration)
	assert.Equal(t, 4, rec.Rating)
	assert.Equal(t, payload, rec.Payload)
	assert.Equal(t, len(payload), rec.SizeBytes)
	assert.False(t, rec.CreatedDate.IsZero())
}

func TestGetUnknownRecording(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestListBySessionExcludesPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, slot := range []string{"q1", "q2"} {
		_, err := store.Save(ctx, &Recording{
			SessionID: "sess-1",
			SlotID:    slot,
			MimeType:  "audio/wav",
			Payload:   []byte("payload-" + slot),
		})
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, &Recording{
		SessionID: "sess-other",
		SlotID:    "q1",
		MimeType:  "audio/wav",
		Payload:   []byte("x"),
	})
	require.NoError(t, err)

	recs, err := store.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, "sess-1", rec.SessionID)
		assert.Empty(t, rec.Payload, "listings must not carry payload bytes")
		assert.NotZero(t, rec.SizeBytes)
	}
}

func TestDeleteRecording(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, &Recording{
		SessionID: "sess-1",
		SlotID:    "q1",
		MimeType:  "audio/wav",
		Payload:   []byte("x"),
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.Error(t, err)
}
