// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerSchedulerFiresAndCancels(t *testing.T) {
	s := NewTickerScheduler()

	var count atomic.Int64
	cancel := s.Every(5*time.Millisecond, func() { count.Add(1) })

	require.Eventually(t, func() bool {
		return count.Load() >= 2
	}, time.Second, time.Millisecond, "task never fired")

	cancel()
	settled := count.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), settled+1, "task kept firing after cancel")

	// Cancel is idempotent.
	cancel()
}

func TestManualSchedulerFiresOnlyWhenTold(t *testing.T) {
	s := NewManualScheduler()

	var count int
	cancel := s.Every(time.Second, func() { count++ })
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 0, count)

	s.Fire()
	s.Fire()
	assert.Equal(t, 2, count)

	cancel()
	assert.Equal(t, 0, s.Pending())
	s.Fire()
	assert.Equal(t, 2, count, "cancelled task must not fire")
}
