// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/connectors"
)

// Store persists finalized recordings at submit time.
type Store interface {
	// Save stores a recording with a generated recordingId (UUID).
	// Returns the generated recordingId.
	Save(ctx context.Context, rec *Recording) (string, error)

	// Get retrieves one recording, payload included.
	Get(ctx context.Context, recordingID string) (*Recording, error)

	// ListBySession lists a session's recordings without their payloads,
	// newest first — the payload column is deliberately excluded so session
	// listings stay cheap.
	ListBySession(ctx context.Context, sessionID string) ([]Recording, error)

	// Delete removes a recording. Cleanup only — submitted recordings are
	// otherwise immutable.
	Delete(ctx context.Context, recordingID string) error
}

type dbStore struct {
	db     connectors.Connector
	logger commons.Logger
}

// NewStore creates a recording store on the given connector and migrates the
// recordings table.
func NewStore(db connectors.Connector, logger commons.Logger) (Store, error) {
	if err := db.DB(context.Background()).AutoMigrate(&Recording{}); err != nil {
		return nil, fmt.Errorf("failed to migrate recordings table: %w", err)
	}
	return &dbStore{db: db, logger: logger}, nil
}

func (s *dbStore) Save(ctx context.Context, rec *Recording) (string, error) {
	if rec.RecordingID == "" {
		rec.RecordingID = uuid.New().String()
	}
	if rec.CreatedDate.IsZero() {
		rec.CreatedDate = time.Now()
	}
	rec.SizeBytes = len(rec.Payload)

	if err := s.db.DB(ctx).Create(rec).Error; err != nil {
		return "", fmt.Errorf("failed to save recording %s: %w", rec.RecordingID, err)
	}

	s.logger.Infof("archived recording: recordingId=%s, session=%s, slot=%s, bytes=%d",
		rec.RecordingID, rec.SessionID, rec.SlotID, rec.SizeBytes)

	return rec.RecordingID, nil
}

func (s *dbStore) Get(ctx context.Context, recordingID string) (*Recording, error) {
	var rec Recording
	if err := s.db.DB(ctx).Where("recording_id = ?", recordingID).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("recording not found: %s: %w", recordingID, err)
	}
	return &rec, nil
}

func (s *dbStore) ListBySession(ctx context.Context, sessionID string) ([]Recording, error) {
	var recs []Recording
	err := s.db.DB(ctx).
		Select("id", "recording_id", "session_id", "slot_id", "mime_type",
			"duration_seconds", "size_bytes", "rating", "notes", "created_date").
		Where("session_id = ?", sessionID).
		Order("created_date DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings for session %s: %w", sessionID, err)
	}
	return recs, nil
}

func (s *dbStore) Delete(ctx context.Context, recordingID string) error {
	if err := s.db.DB(ctx).Where("recording_id = ?", recordingID).Delete(&Recording{}).Error; err != nil {
		return fmt.Errorf("failed to delete recording %s: %w", recordingID, err)
	}
	s.logger.Debugf("deleted recording: recordingId=%s", recordingID)
	return nil
}
