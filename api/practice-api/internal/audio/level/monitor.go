// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_level

import (
	"math"
	"sync"
	"time"

	internal_schedule "github.com/rapidaai/practice/api/practice-api/internal/schedule"
	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
	"github.com/rapidaai/practice/pkg/commons"
)

// Empirical tuning values. The gain and the band thresholds were calibrated
// so normal speaking volume lands in the "good" band; keep them as named
// constants rather than re-deriving, so behavior stays put across versions.
const (
	// LevelGainMultiplier scales normalized RMS onto the 0–100 level scale.
	LevelGainMultiplier = 3.0

	// MaxLevel caps the published level.
	MaxLevel = 100.0

	// Quality band upper bounds, ascending.
	ThresholdVeryLow   = 3.0
	ThresholdPoor      = 15.0
	ThresholdGood      = 30.0
	ThresholdExcellent = 80.0

	// DefaultSampleInterval approximates one sample per rendered frame
	// (~60 Hz), the cadence the UI feedback was tuned against.
	DefaultSampleInterval = 16 * time.Millisecond
)

// LevelFromMagnitudes derives the normalized loudness level from a byte-range
// magnitude array: RMS over the bins, scaled by the gain, clamped to
// [0, MaxLevel].
func LevelFromMagnitudes(bins []float64, gain float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sumSquares float64
	for _, b := range bins {
		sumSquares += b * b
	}
	rms := math.Sqrt(sumSquares / float64(len(bins)))

	level := (rms / 255.0) * 100.0 * gain
	if level > MaxLevel {
		return MaxLevel
	}
	if level < 0 {
		return 0
	}
	return level
}

// Classify maps a level onto a quality band. Bands are evaluated lowest to
// highest and the last matching threshold wins, so boundary values fall into
// the lower band (a level of exactly 3 is still very_low).
func Classify(level float64) internal_type.Quality {
	quality := internal_type.QualityVeryLow
	if level > ThresholdVeryLow {
		quality = internal_type.QualityPoor
	}
	if level > ThresholdPoor {
		quality = internal_type.QualityGood
	}
	if level > ThresholdGood {
		quality = internal_type.QualityExcellent
	}
	if level > ThresholdExcellent {
		quality = internal_type.QualityTooLoud
	}
	return quality
}

// MagnitudeSource is what the monitor samples — the analyser in production,
// a stub in tests.
type MagnitudeSource interface {
	ByteFrequencyData() []float64
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithGain overrides the calibration gain.
func WithGain(gain float64) MonitorOption {
	return func(m *Monitor) { m.gain = gain }
}

// WithSampleInterval overrides the sampling cadence.
func WithSampleInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = interval }
}

// Monitor samples a magnitude source at frame cadence and publishes
// (level, quality) pairs while monitoring is active. A sample callback that
// fires after Stop is a guaranteed no-op — the monitoring flag is consulted
// at the top of every scheduled callback.
type Monitor struct {
	logger    commons.Logger
	source    MagnitudeSource
	scheduler internal_schedule.Scheduler
	publish   func(level float64, quality internal_type.Quality)

	gain     float64
	interval time.Duration

	mu         sync.Mutex
	monitoring bool
	cancel     internal_schedule.CancelFunc
}

// NewMonitor builds a monitor. publish is invoked once per sample on the
// scheduler's goroutine.
func NewMonitor(
	logger commons.Logger,
	source MagnitudeSource,
	scheduler internal_schedule.Scheduler,
	publish func(level float64, quality internal_type.Quality),
	opts ...MonitorOption,
) *Monitor {
	m := &Monitor{
		logger:    logger,
		source:    source,
		scheduler: scheduler,
		publish:   publish,
		gain:      LevelGainMultiplier,
		interval:  DefaultSampleInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins sampling. Idempotent while already monitoring.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.monitoring {
		return
	}
	m.monitoring = true
	m.cancel = m.scheduler.Every(m.interval, m.sample)
}

// Stop halts sampling immediately. Any callback already scheduled becomes a
// no-op. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.monitoring {
		m.mu.Unlock()
		return
	}
	m.monitoring = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) sample() {
	m.mu.Lock()
	active := m.monitoring
	m.mu.Unlock()
	if !active {
		return
	}

	bins := m.source.ByteFrequencyData()
	level := LevelFromMagnitudes(bins, m.gain)
	m.publish(level, Classify(level))
}
