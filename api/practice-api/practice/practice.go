// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package practice_api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	internal_archive "github.com/rapidaai/practice/api/practice-api/internal/archive"
	internal_audio "github.com/rapidaai/practice/api/practice-api/internal/audio"
	internal_capture "github.com/rapidaai/practice/api/practice-api/internal/capture"
	internal_session "github.com/rapidaai/practice/api/practice-api/internal/session"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	internal_uploader "github.com/rapidaai/practice/api/practice-api/internal/uploader"
	"github.com/rapidaai/practice/config"
	"github.com/rapidaai/practice/pkg/commons"
	"github.com/rapidaai/practice/pkg/connectors"
)

// PracticeApi exposes the recording pipeline over HTTP: session management,
// the three slot commands, payload download, WebSocket audio ingest, and the
// submit flow (validate → archive → upload → teardown).
type PracticeApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	registry *internal_capture.Registry
	archive  internal_archive.Store
	uploader internal_uploader.Uploader
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*internal_session.Session
}

// NewPracticeApi wires the pipeline's collaborators.
func NewPracticeApi(cfg *config.AppConfig, logger commons.Logger, db connectors.Connector) (*PracticeApi, error) {
	archive, err := internal_archive.NewStore(db, logger)
	if err != nil {
		return nil, err
	}

	return &PracticeApi{
		cfg:      cfg,
		logger:   logger,
		registry: internal_capture.NewRegistry(logger, time.Duration(cfg.CaptureAttachTimeout)*time.Millisecond),
		archive:  archive,
		uploader: internal_uploader.NewUploader(cfg.UploaderConfig, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// The REST surface already allows cross-origin callers; ingest
			// follows the same policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*internal_session.Session),
	}, nil
}

// CreateSession starts a fresh practice session and returns its id.
func (p *PracticeApi) CreateSession(c *gin.Context) {
	id := uuid.New().String()

	captureCfg := internal_type.DefaultCaptureConfig()
	if p.cfg.CaptureSampleRate > 0 {
		captureCfg.Audio = internal_audio.Config{
			SampleRate: uint32(p.cfg.CaptureSampleRate),
			Channels:   1,
		}
	}

	opts := []internal_session.Option{
		internal_session.WithCaptureConfig(captureCfg),
	}
	if p.cfg.MaxRecordingSeconds > 0 {
		opts = append(opts, internal_session.WithMaxDuration(
			time.Duration(p.cfg.MaxRecordingSeconds)*time.Second))
	}

	session := internal_session.NewSession(p.logger, id, p.registry.Source(id), opts...)

	p.mu.Lock()
	p.sessions[id] = session
	p.mu.Unlock()

	p.logger.Infow("practice session created", "session", id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

// GetSession returns every slot's snapshot plus the session aggregate state.
func (p *PracticeApi) GetSession(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID(),
		"slots":     session.Snapshots(),
		"rating":    session.Rating(),
		"notes":     session.Notes(),
	})
}

// StartRecording issues the start command for one slot. Blocks until the
// client attaches its audio stream or acquisition fails.
func (p *PracticeApi) StartRecording(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	slot := internal_type.SlotID(c.Param("slotId"))

	if err := session.StartRecording(c.Request.Context(), slot); err != nil {
		p.abortWithPipelineError(c, err)
		return
	}
	snap, _ := session.Snapshot(slot)
	c.JSON(http.StatusOK, snap)
}

// StopRecording finalizes one slot's recording.
func (p *PracticeApi) StopRecording(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	slot := internal_type.SlotID(c.Param("slotId"))

	if err := session.StopRecording(slot); err != nil {
		p.abortWithPipelineError(c, err)
		return
	}
	snap, _ := session.Snapshot(slot)
	c.JSON(http.StatusOK, snap)
}

// ReRecord discards-on-replace: starts a new recording for an answered slot
// while keeping the prior payload until the new one is finalized.
func (p *PracticeApi) ReRecord(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	slot := internal_type.SlotID(c.Param("slotId"))

	if err := session.ReRecord(c.Request.Context(), slot); err != nil {
		p.abortWithPipelineError(c, err)
		return
	}
	snap, _ := session.Snapshot(slot)
	c.JSON(http.StatusOK, snap)
}

// GetPayload streams the finalized payload for playback/export.
func (p *PracticeApi) GetPayload(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	slot := internal_type.SlotID(c.Param("slotId"))

	payload, mimeType, ok := session.Payload(slot)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing recorded yet for this slot"})
		return
	}
	c.Data(http.StatusOK, mimeType, payload)
}

// Ingest upgrades the connection and attaches the client's audio stream to
// the recording waiting on this slot.
func (p *PracticeApi) Ingest(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	slot := internal_type.SlotID(c.Param("slotId"))

	conn, err := p.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		p.logger.Warnw("ingest upgrade failed", "session", session.ID(), "error", err.Error())
		return
	}

	stream := internal_capture.NewWebsocketStream(p.logger, conn)
	if err := p.registry.Attach(session.ID(), slot, stream); err != nil {
		p.logger.Warnw("ingest rejected", "session", session.ID(), "slot", slot, "error", err.Error())
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		stream.Close()
		return
	}
}

type submitRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Notes  string `json:"notes"`
}

// Submit validates the session (rating present, every slot answered),
// archives each payload, hands them to the uploader and tears the session
// down. Validation failures block submission before anything is persisted.
func (p *PracticeApi) Submit(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a rating between 1 and 5 is required before submitting"})
		return
	}

	snapshots := session.Snapshots()
	if len(snapshots) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing recorded yet"})
		return
	}
	for _, snap := range snapshots {
		if !snap.HasPayload {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "all questions must be answered before submitting",
				"slot":  snap.SlotID,
			})
			return
		}
	}

	session.SetRating(req.Rating)
	session.SetNotes(req.Notes)

	recordingIDs := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		payload, mimeType, _ := session.Payload(snap.SlotID)

		recordingID, err := p.archive.Save(c.Request.Context(), &internal_archive.Recording{
			SessionID: session.ID(),
			SlotID:    string(snap.SlotID),
			MimeType:  mimeType,
			Duration:  snap.ElapsedSeconds,
			Rating:    req.Rating,
			Notes:     req.Notes,
			Payload:   payload,
		})
		if err != nil {
			p.logger.Errorw("failed to archive recording",
				"session", session.ID(), "slot", snap.SlotID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store recording"})
			return
		}
		recordingIDs = append(recordingIDs, recordingID)

		if err := p.uploader.Upload(c.Request.Context(), internal_uploader.Submission{
			SessionID: session.ID(),
			SlotID:    string(snap.SlotID),
			Rating:    req.Rating,
			Notes:     req.Notes,
			MimeType:  mimeType,
			Payload:   payload,
		}); err != nil {
			// The recording is archived; upload can be retried out of band.
			p.logger.Errorw("failed to upload recording",
				"session", session.ID(), "slot", snap.SlotID, "error", err.Error())
		}
	}

	session.Teardown()
	p.removeSession(session.ID())

	c.JSON(http.StatusOK, gin.H{"recordingIds": recordingIDs})
}

// ListRecordings lists the archived recordings of a session (payloads
// excluded).
func (p *PracticeApi) ListRecordings(c *gin.Context) {
	sessionID := c.Param("sessionId")
	recs, err := p.archive.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recordings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": recs})
}

// DeleteSession tears the session down, discards payloads and forgets it.
func (p *PracticeApi) DeleteSession(c *gin.Context) {
	session, ok := p.session(c)
	if !ok {
		return
	}
	session.Teardown()
	session.Reset()
	p.removeSession(session.ID())
	c.Status(http.StatusNoContent)
}

// Shutdown tears down every live session; called on server exit so no
// capture stream or timer survives the process's intent to stop.
func (p *PracticeApi) Shutdown() {
	p.mu.Lock()
	sessions := make([]*internal_session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[string]*internal_session.Session)
	p.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
}

func (p *PracticeApi) session(c *gin.Context) (*internal_session.Session, bool) {
	id := c.Param("sessionId")
	p.mu.Lock()
	session, ok := p.sessions[id]
	p.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil, false
	}
	return session, true
}

func (p *PracticeApi) removeSession(id string) {
	p.mu.Lock()
	delete(p.sessions, id)
	p.mu.Unlock()
}

// abortWithPipelineError maps pipeline errors onto HTTP statuses the view
// layer surfaces as user-facing alerts.
func (p *PracticeApi) abortWithPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, internal_type.ErrRecordingInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, internal_type.ErrCaptureUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "microphone unavailable: " + err.Error()})
	case errors.Is(err, internal_type.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, internal_type.ErrEncodingFailure):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
