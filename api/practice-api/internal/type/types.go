// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

// SlotID identifies one independently recordable unit inside a session — one
// question's audio answer on a practice screen. Single-recording screens use
// one implicit slot.
type SlotID string

// SlotState is the lifecycle state of a recording slot.
type SlotState string

const (
	SlotIdle      SlotState = "idle"      // nothing recorded yet, or last attempt failed
	SlotRecording SlotState = "recording" // capture stream open, encoder running
	SlotStopped   SlotState = "stopped"   // finalized payload available
)

// Quality is the discrete classification of the live loudness level.
type Quality string

const (
	QualityNotStarted Quality = "not_started"
	QualityVeryLow    Quality = "very_low"
	QualityPoor       Quality = "poor"
	QualityGood       Quality = "good"
	QualityExcellent  Quality = "excellent"
	QualityTooLoud    Quality = "too_loud"
)

// SlotSnapshot is the UI-facing view of one slot. It is refreshed on every
// timer tick and every level sample while the slot is recording.
type SlotSnapshot struct {
	SlotID         SlotID    `json:"slotId"`
	State          SlotState `json:"state"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	CurrentLevel   float64   `json:"currentLevel"`
	Quality        Quality   `json:"quality"`
	HasPayload     bool      `json:"hasPayload"`
}
