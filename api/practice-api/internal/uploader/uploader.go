// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_uploader

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/configs"
)

// Submission is one finalized answer handed to the learning-management
// backend as part of a practice submission.
type Submission struct {
	SessionID string
	SlotID    string
	Rating    int
	Notes     string
	MimeType  string
	Payload   []byte
}

// Uploader hands finalized payloads to the backend. The pipeline itself
// never performs network I/O — uploading happens here, after stop, on the
// submit path.
type Uploader interface {
	Upload(ctx context.Context, sub Submission) error
}

type restyUploader struct {
	logger   commons.Logger
	client   *resty.Client
	endpoint string
}

// NewUploader builds a resty-backed uploader from config. A missing endpoint
// yields a disabled uploader that logs and succeeds, so single-node
// deployments work without a backend.
func NewUploader(cfg configs.UploaderConfig, logger commons.Logger) Uploader {
	if cfg.Endpoint == "" {
		return &noopUploader{logger: logger}
	}

	timeout := 30 * time.Second
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.ApiKey != "" {
		client.SetHeader("x-api-key", cfg.ApiKey)
	}

	return &restyUploader{
		logger:   logger,
		client:   client,
		endpoint: cfg.Endpoint,
	}
}

func (u *restyUploader) Upload(ctx context.Context, sub Submission) error {
	filename := "answer-" + sub.SlotID + extensionFor(sub.MimeType)

	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("audio", filename, bytes.NewReader(sub.Payload)).
		SetFormData(map[string]string{
			"sessionId": sub.SessionID,
			"slotId":    sub.SlotID,
			"rating":    strconv.Itoa(sub.Rating),
			"notes":     sub.Notes,
			"mimeType":  sub.MimeType,
		}).
		Post(u.endpoint)
	if err != nil {
		return fmt.Errorf("failed to upload recording for session %s slot %s: %w",
			sub.SessionID, sub.SlotID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload rejected for session %s slot %s: %s",
			sub.SessionID, sub.SlotID, resp.Status())
	}

	u.logger.Infow("recording uploaded",
		"session", sub.SessionID, "slot", sub.SlotID, "bytes", len(sub.Payload))
	return nil
}

// extensionFor picks a file extension for the declared payload format so the
// backend stores exports with the right suffix.
func extensionFor(mimeType string) string {
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

type noopUploader struct {
	logger commons.Logger
}

func (u *noopUploader) Upload(ctx context.Context, sub Submission) error {
	u.logger.Debugw("uploader disabled, keeping recording local",
		"session", sub.SessionID, "slot", sub.SlotID)
	return nil
}
