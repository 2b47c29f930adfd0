// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	internal_encoder "github.com/rapidaai/practice/api/practice-api/internal/audio/encoder"
	internal_level "github.com/rapidaai/practice/api/practice-api/internal/audio/level"
	internal_blob "github.com/rapidaai/practice/api/practice-api/internal/blob"
	internal_schedule "github.com/rapidaai/practice/api/practice-api/internal/schedule"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	"github.com/rapidaai/practice/pkg/commons"
)

// DefaultUpdateChannelSize buffers snapshot events between the pipeline and
// the consuming view. Pushes are non-blocking; a slow consumer drops
// snapshots, never stalls the pipeline.
const DefaultUpdateChannelSize = 256

// ============================================================================
// Session — slot lifecycle, capture acquisition, resource release
// ============================================================================

// Session owns the full lifecycle of one practice exercise's recordings: a
// map of independently keyed slots, the shared capture input, the per-slot
// timer and level monitor, and the finalized payloads. All hardware handles
// (stream, analyser, encoder) are owned exclusively by the session for the
// duration of a recording; on stop, ownership of the payload transfers to the
// blob store and every handle is released. Consumers only ever read state.
//
// Slots share one physical capture input, so at most one slot records at a
// time; starting a second is rejected with ErrRecordingInProgress.
type Session struct {
	mu sync.Mutex

	logger commons.Logger
	id     string
	source internal_type.CaptureSource

	clock          internal_schedule.Clock
	scheduler      internal_schedule.Scheduler
	encoderFactory internal_type.EncoderFactory
	captureCfg     internal_type.CaptureConfig
	windowSize     int
	gain           float64
	sampleInterval time.Duration
	maxDuration    time.Duration

	blobs *internal_blob.Store
	slots map[internal_type.SlotID]*slot

	activeSlot internal_type.SlotID
	hasActive  bool
	closed     bool

	rating  int
	notes   string
	updates chan internal_type.SlotSnapshot
}

// slot carries the per-slot state plus the handles of the in-flight
// recording attempt, all nil outside Recording.
type slot struct {
	id      internal_type.SlotID
	state   internal_type.SlotState
	start   time.Time
	elapsed int
	level   float64
	quality internal_type.Quality

	stream      internal_type.CaptureStream
	encoder     internal_type.Encoder
	monitor     *internal_level.Monitor
	cancelTimer internal_schedule.CancelFunc
	pumpDone    chan struct{}
	stopping    bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock injects the time source used for elapsed-time measurement.
func WithClock(clock internal_schedule.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithScheduler injects the repeating-task scheduler used by the timer and
// the level monitor.
func WithScheduler(scheduler internal_schedule.Scheduler) Option {
	return func(s *Session) { s.scheduler = scheduler }
}

// WithEncoderFactory overrides the payload encoder (WAV by default).
func WithEncoderFactory(factory internal_type.EncoderFactory) Option {
	return func(s *Session) { s.encoderFactory = factory }
}

// WithCaptureConfig overrides the capture constraints requested from the
// source.
func WithCaptureConfig(cfg internal_type.CaptureConfig) Option {
	return func(s *Session) { s.captureCfg = cfg }
}

// WithAnalyserWindow overrides the analysis window size.
func WithAnalyserWindow(window int) Option {
	return func(s *Session) { s.windowSize = window }
}

// WithGain overrides the level calibration gain.
func WithGain(gain float64) Option {
	return func(s *Session) { s.gain = gain }
}

// WithSampleInterval overrides the level sampling cadence.
func WithSampleInterval(interval time.Duration) Option {
	return func(s *Session) { s.sampleInterval = interval }
}

// WithMaxDuration caps recordings at the given duration; reaching the cap
// stops the recording as if the user had. Zero means uncapped.
func WithMaxDuration(d time.Duration) Option {
	return func(s *Session) { s.maxDuration = d }
}

// NewSession builds a session around a capture source.
func NewSession(logger commons.Logger, id string, source internal_type.CaptureSource, opts ...Option) *Session {
	s := &Session{
		logger:         logger,
		id:             id,
		source:         source,
		clock:          time.Now,
		scheduler:      internal_schedule.NewTickerScheduler(),
		encoderFactory: internal_encoder.NewWAVEncoder,
		captureCfg:     internal_type.DefaultCaptureConfig(),
		windowSize:     internal_level.DefaultWindowSize,
		gain:           internal_level.LevelGainMultiplier,
		sampleInterval: internal_level.DefaultSampleInterval,
		blobs:          internal_blob.NewStore(),
		slots:          make(map[internal_type.SlotID]*slot),
		updates:        make(chan internal_type.SlotSnapshot, DefaultUpdateChannelSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Commands
// ============================================================================

// StartRecording acquires the capture input for the slot and begins encoding
// and monitoring. The slot is created on first use. Acquisition is the only
// suspension point — it may block until the client attaches audio or ctx is
// cancelled. On any failure the slot is left idle with no dangling stream.
func (s *Session) StartRecording(ctx context.Context, slotID internal_type.SlotID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return internal_type.ErrSessionClosed
	}
	if s.hasActive {
		active := s.activeSlot
		s.mu.Unlock()
		return fmt.Errorf("%w: slot %s holds the capture input", internal_type.ErrRecordingInProgress, active)
	}
	sl, ok := s.slots[slotID]
	if !ok {
		sl = &slot{id: slotID, state: internal_type.SlotIdle, quality: internal_type.QualityNotStarted}
		s.slots[slotID] = sl
	}
	// Reserve the shared input before the blocking acquisition so a second
	// start issued mid-acquisition is rejected, not interleaved.
	s.hasActive = true
	s.activeSlot = slotID
	s.mu.Unlock()

	stream, err := s.source.Open(ctx, slotID, s.captureCfg)
	if err != nil {
		s.mu.Lock()
		s.hasActive = false
		s.mu.Unlock()
		s.logger.Warnw("capture acquisition failed",
			"session", s.id, "slot", slotID, "error", err.Error())
		if !errors.Is(err, internal_type.ErrCaptureUnavailable) {
			err = fmt.Errorf("%w: %v", internal_type.ErrCaptureUnavailable, err)
		}
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.hasActive = false
		s.mu.Unlock()
		stream.Close()
		return internal_type.ErrSessionClosed
	}

	analyser := internal_level.NewAnalyser(s.windowSize)
	encoder := s.encoderFactory(s.captureCfg.Audio)
	monitor := internal_level.NewMonitor(s.logger, analyser, s.scheduler,
		func(level float64, quality internal_type.Quality) {
			s.onLevelSample(slotID, level, quality)
		},
		internal_level.WithGain(s.gain),
		internal_level.WithSampleInterval(s.sampleInterval),
	)

	sl.state = internal_type.SlotRecording
	sl.start = s.clock()
	sl.elapsed = 0
	sl.level = 0
	sl.quality = internal_type.QualityNotStarted
	sl.stream = stream
	sl.encoder = encoder
	sl.monitor = monitor
	sl.stopping = false
	sl.pumpDone = make(chan struct{})
	sl.cancelTimer = s.scheduler.Every(time.Second, func() { s.onTimerTick(slotID) })
	pumpDone := sl.pumpDone
	s.mu.Unlock()

	monitor.Start()
	go s.runPump(slotID, stream, encoder, analyser, pumpDone)

	s.logger.Infow("recording started", "session", s.id, "slot", slotID)
	s.publishSlot(slotID)
	return nil
}

// StopRecording finalizes the slot's recording into a payload, stores it and
// releases the stream, timer and monitor. Safe to call twice — the second
// call (and a stop on a slot that never recorded) is a no-op.
func (s *Session) StopRecording(slotID internal_type.SlotID) error {
	s.mu.Lock()
	sl, ok := s.slots[slotID]
	if !ok || sl.state != internal_type.SlotRecording || sl.stopping {
		s.mu.Unlock()
		return nil
	}
	sl.stopping = true
	monitor := sl.monitor
	cancelTimer := sl.cancelTimer
	stream := sl.stream
	encoder := sl.encoder
	pumpDone := sl.pumpDone
	s.mu.Unlock()

	// Halt sampling before anything else so no level sample lands after stop.
	if monitor != nil {
		monitor.Stop()
	}
	if cancelTimer != nil {
		cancelTimer()
	}
	if stream != nil {
		stream.Close()
	}
	if pumpDone != nil {
		// Wait for trailing frames to drain into the encoder.
		<-pumpDone
	}

	payload, err := encoder.Finalize()
	mime := encoder.MimeType()

	s.mu.Lock()
	sl.monitor = nil
	sl.cancelTimer = nil
	sl.stream = nil
	sl.encoder = nil
	sl.pumpDone = nil
	sl.level = 0
	if s.activeSlot == slotID {
		s.hasActive = false
	}
	if err != nil {
		// No payload: the slot goes back to idle, nothing is stored and the
		// user can retry from a clean state.
		sl.state = internal_type.SlotIdle
		sl.quality = internal_type.QualityNotStarted
		sl.stopping = false
		s.mu.Unlock()
		s.logger.Errorw("recording finalize failed",
			"session", s.id, "slot", slotID, "error", err.Error())
		s.publishSlot(slotID)
		return fmt.Errorf("%w: %v", internal_type.ErrEncodingFailure, err)
	}
	s.mu.Unlock()

	// Store before flipping state so hasPayload is already true when the
	// stopped snapshot goes out. Replacement is wholesale — a re-record's
	// prior payload survives up to this point.
	s.blobs.Set(slotID, payload, mime)

	s.mu.Lock()
	sl.state = internal_type.SlotStopped
	sl.stopping = false
	s.mu.Unlock()

	s.logger.Infow("recording stopped",
		"session", s.id, "slot", slotID, "payload_bytes", len(payload), "mime", mime)
	s.publishSlot(slotID)
	return nil
}

// ReRecord starts a fresh recording for a slot that already holds a payload.
// The prior payload is deliberately retained until the replacement recording
// finalizes — an abandoned re-record never loses the original answer.
func (s *Session) ReRecord(ctx context.Context, slotID internal_type.SlotID) error {
	s.logger.Infow("re-recording slot, prior payload retained until replaced",
		"session", s.id, "slot", slotID)
	return s.StartRecording(ctx, slotID)
}

// Teardown releases every slot's stream, timer and monitor exactly once.
// In-flight recordings are finalized and their partial payloads stored —
// user audio is never dropped on dismissal. Callable at any time, including
// concurrently with an in-flight stop.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var recording []internal_type.SlotID
	for id, sl := range s.slots {
		if sl.state == internal_type.SlotRecording && !sl.stopping {
			recording = append(recording, id)
		}
	}
	s.mu.Unlock()

	for _, id := range recording {
		if err := s.StopRecording(id); err != nil {
			s.logger.Warnw("finalize on teardown failed",
				"session", s.id, "slot", id, "error", err.Error())
		}
	}
	s.logger.Infow("session torn down", "session", s.id)
}

// Reset discards every payload (running release hooks) and forgets all slot
// state. Active recordings are stopped first.
func (s *Session) Reset() {
	s.mu.Lock()
	var recording []internal_type.SlotID
	for id, sl := range s.slots {
		if sl.state == internal_type.SlotRecording && !sl.stopping {
			recording = append(recording, id)
		}
	}
	s.mu.Unlock()

	for _, id := range recording {
		s.StopRecording(id)
	}

	s.blobs.Reset()
	s.mu.Lock()
	s.slots = make(map[internal_type.SlotID]*slot)
	s.rating = 0
	s.notes = ""
	s.mu.Unlock()
}

// ============================================================================
// Pump, timer and level callbacks
// ============================================================================

// runPump drains the capture stream into the encoder and the analyser. When
// the stream ends on its own (client detached), the recording is finalized
// as if stopped — capture ending is never silent data loss.
func (s *Session) runPump(
	slotID internal_type.SlotID,
	stream internal_type.CaptureStream,
	encoder internal_type.Encoder,
	analyser *internal_level.Analyser,
	done chan struct{},
) {
	for frame := range stream.Frames() {
		if err := encoder.Write(frame); err != nil {
			s.logger.Warnw("dropping frame after finalize",
				"session", s.id, "slot", slotID, "error", err.Error())
			continue
		}
		analyser.Push(frame)
	}
	close(done)

	// No-op when a stop is already in flight (Close above came from
	// StopRecording); otherwise the stream ended client-side.
	if err := s.StopRecording(slotID); err != nil {
		s.logger.Warnw("finalize after stream end failed",
			"session", s.id, "slot", slotID, "error", err.Error())
	}
}

// onTimerTick recomputes elapsed seconds from the captured start timestamp —
// floor((now-start)/1s) — so delayed ticks never accumulate drift.
func (s *Session) onTimerTick(slotID internal_type.SlotID) {
	s.mu.Lock()
	sl, ok := s.slots[slotID]
	if !ok || sl.state != internal_type.SlotRecording || sl.stopping {
		s.mu.Unlock()
		return
	}
	sl.elapsed = int(s.clock().Sub(sl.start).Seconds())
	overCap := s.maxDuration > 0 && time.Duration(sl.elapsed)*time.Second >= s.maxDuration
	snap := s.snapshotLocked(sl)
	s.mu.Unlock()

	s.pushUpdate(snap)
	if overCap {
		s.logger.Infow("max recording duration reached",
			"session", s.id, "slot", slotID, "elapsed", snap.ElapsedSeconds)
		go s.StopRecording(slotID)
	}
}

// onLevelSample lands a (level, quality) sample on the slot. Samples racing a
// stop are discarded — the state check is the dangling-callback guard.
func (s *Session) onLevelSample(slotID internal_type.SlotID, level float64, quality internal_type.Quality) {
	s.mu.Lock()
	sl, ok := s.slots[slotID]
	if !ok || sl.state != internal_type.SlotRecording || sl.stopping {
		s.mu.Unlock()
		return
	}
	sl.level = level
	sl.quality = quality
	snap := s.snapshotLocked(sl)
	s.mu.Unlock()

	s.pushUpdate(snap)
}

// ============================================================================
// State exposure
// ============================================================================

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the UI-facing view of one slot.
func (s *Session) Snapshot(slotID internal_type.SlotID) (internal_type.SlotSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[slotID]
	if !ok {
		return internal_type.SlotSnapshot{}, false
	}
	return s.snapshotLocked(sl), true
}

// Snapshots returns every slot's view, ordered by slot id.
func (s *Session) Snapshots() []internal_type.SlotSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]internal_type.SlotSnapshot, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, s.snapshotLocked(sl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out
}

// Updates is the stream of snapshot events, refreshed on every timer tick
// and level sample while recording.
func (s *Session) Updates() <-chan internal_type.SlotSnapshot {
	return s.updates
}

// Payload returns the finalized payload for a slot.
func (s *Session) Payload(slotID internal_type.SlotID) ([]byte, string, bool) {
	return s.blobs.Get(slotID)
}

// Blobs exposes the payload store to the owning view (read side plus
// discard/release hooks).
func (s *Session) Blobs() *internal_blob.Store {
	return s.blobs
}

// Active reports which slot, if any, currently holds the capture input.
func (s *Session) Active() (internal_type.SlotID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlot, s.hasActive
}

// Closed reports whether Teardown has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetRating records the 1–5 session rating.
func (s *Session) SetRating(rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rating = rating
}

// SetNotes records the free-text session notes.
func (s *Session) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
}

// Rating returns the session rating (0 when unset).
func (s *Session) Rating() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rating
}

// Notes returns the session notes.
func (s *Session) Notes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

func (s *Session) snapshotLocked(sl *slot) internal_type.SlotSnapshot {
	return internal_type.SlotSnapshot{
		SlotID:         sl.id,
		State:          sl.state,
		ElapsedSeconds: sl.elapsed,
		CurrentLevel:   sl.level,
		Quality:        sl.quality,
		HasPayload:     s.blobs.Has(sl.id),
	}
}

func (s *Session) publishSlot(slotID internal_type.SlotID) {
	if snap, ok := s.Snapshot(slotID); ok {
		s.pushUpdate(snap)
	}
}

// pushUpdate is non-blocking; a full channel drops the snapshot rather than
// stalling the pipeline.
func (s *Session) pushUpdate(snap internal_type.SlotSnapshot) {
	select {
	case s.updates <- snap:
	default:
		s.logger.Debugw("updates channel full, dropping snapshot",
			"session", s.id, "slot", snap.SlotID)
	}
}
