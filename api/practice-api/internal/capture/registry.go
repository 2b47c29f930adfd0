// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	"github.com/rapidaai/practice/pkg/commons"
)

// DefaultAttachTimeout bounds how long a start command waits for the client
// to attach its audio stream before the attempt fails.
const DefaultAttachTimeout = 10 * time.Second

type attachKey struct {
	session string
	slot    internal_type.SlotID
}

// Registry rendezvouses recording starts with client audio streams. A start
// command opens the source and blocks until the capturing client attaches a
// stream for that (session, slot) — the permission-prompt analog: acquisition
// is asynchronous, possibly user-interactive, and may be denied by simply
// never attaching. One waiter per (session, slot) at a time.
type Registry struct {
	mu            sync.Mutex
	logger        commons.Logger
	attachTimeout time.Duration
	waiting       map[attachKey]chan internal_type.CaptureStream
}

// NewRegistry builds a registry. attachTimeout <= 0 falls back to
// DefaultAttachTimeout.
func NewRegistry(logger commons.Logger, attachTimeout time.Duration) *Registry {
	if attachTimeout <= 0 {
		attachTimeout = DefaultAttachTimeout
	}
	return &Registry{
		logger:        logger,
		attachTimeout: attachTimeout,
		waiting:       make(map[attachKey]chan internal_type.CaptureStream),
	}
}

// Source returns the capture source for one session. Each Open waits for the
// matching Attach.
func (r *Registry) Source(sessionID string) internal_type.CaptureSource {
	return &registrySource{registry: r, sessionID: sessionID}
}

// Attach delivers a live stream to the start command waiting on this
// (session, slot). Fails when no recording is awaiting audio — the client
// attached before (or without) issuing start.
func (r *Registry) Attach(sessionID string, slot internal_type.SlotID, stream internal_type.CaptureStream) error {
	key := attachKey{session: sessionID, slot: slot}

	r.mu.Lock()
	ch, ok := r.waiting[key]
	if ok {
		delete(r.waiting, key)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("no recording awaiting audio for session %s slot %s", sessionID, slot)
	}

	ch <- stream
	r.logger.Debugw("capture stream attached", "session", sessionID, "slot", slot)
	return nil
}

type registrySource struct {
	registry  *Registry
	sessionID string
}

func (s *registrySource) Open(ctx context.Context, slot internal_type.SlotID, cfg internal_type.CaptureConfig) (internal_type.CaptureStream, error) {
	r := s.registry
	key := attachKey{session: s.sessionID, slot: slot}
	ch := make(chan internal_type.CaptureStream, 1)

	r.mu.Lock()
	if _, exists := r.waiting[key]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: acquisition already pending for slot %s",
			internal_type.ErrCaptureUnavailable, slot)
	}
	r.waiting[key] = ch
	r.mu.Unlock()

	// cleanup unregisters the waiter and closes a stream that lost the race
	// between Attach and timeout/cancel, so no transport is left dangling.
	cleanup := func() {
		r.mu.Lock()
		if r.waiting[key] == ch {
			delete(r.waiting, key)
		}
		r.mu.Unlock()
		select {
		case stream := <-ch:
			stream.Close()
		default:
		}
	}

	timer := time.NewTimer(r.attachTimeout)
	defer timer.Stop()

	select {
	case stream := <-ch:
		return stream, nil
	case <-ctx.Done():
		cleanup()
		return nil, fmt.Errorf("%w: acquisition cancelled: %v",
			internal_type.ErrCaptureUnavailable, ctx.Err())
	case <-timer.C:
		cleanup()
		return nil, fmt.Errorf("%w: no audio stream attached within %s",
			internal_type.ErrCaptureUnavailable, r.attachTimeout)
	}
}
