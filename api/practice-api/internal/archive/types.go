// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_archive

import (
	"time"
)

// Recording is an archived, finalized practice answer. Rows are written once
// at submit time and never mutated afterwards — playback, export and upload
// retries all read the same immutable payload.
//
// Stored in the recordings table (sqlite for single-node deployments,
// Postgres behind the same connector interface).
type Recording struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	RecordingID string    `json:"recordingId" gorm:"column:recording_id;type:varchar(36);not null;uniqueIndex"`
	SessionID   string    `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;index"`
	SlotID      string    `json:"slotId" gorm:"column:slot_id;type:varchar(64);not null"`
	MimeType    string    `json:"mimeType" gorm:"column:mime_type;type:varchar(64);not null"`
	Duration    int       `json:"durationSeconds" gorm:"column:duration_seconds;type:int;not null;default:0"`
	SizeBytes   int       `json:"sizeBytes" gorm:"column:size_bytes;type:int;not null;default:0"`
	Rating      int       `json:"rating" gorm:"column:rating;type:int;not null;default:0"`
	Notes       string    `json:"notes" gorm:"column:notes;type:text;not null;default:''"`
	Payload     []byte    `json:"-" gorm:"column:payload;not null"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;<-:create"`
}

func (Recording) TableName() string {
	return "recordings"
}
