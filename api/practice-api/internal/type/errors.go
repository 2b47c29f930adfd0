// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "errors"

var (
	// ErrCaptureUnavailable — the capture source could not be acquired: the
	// client never attached its audio stream, denied access, or the platform
	// has no input device. Reported once per attempt, never retried
	// automatically; the slot stays idle.
	ErrCaptureUnavailable = errors.New("capture source unavailable")

	// ErrEncodingFailure — the encoder produced no payload on stop. The slot
	// reverts to idle; nothing is stored.
	ErrEncodingFailure = errors.New("encoding failed to produce a payload")

	// ErrRecordingInProgress — a start was attempted while another slot holds
	// the capture input. Slots share one physical input, so concurrent
	// recordings are rejected rather than silently preempting.
	ErrRecordingInProgress = errors.New("another recording is already in progress")

	// ErrSessionClosed — the session was torn down; no further commands are
	// accepted.
	ErrSessionClosed = errors.New("session is closed")
)
