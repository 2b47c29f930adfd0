// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_blob

import (
	"sync"

	internal_type "github.com/rapidaai/practice/api/practice-api/internal/type"
)

type payload struct {
	data    []byte
	mime    string
	release func()
}

// Store holds exactly one finalized payload per slot. Payloads are opaque —
// the store never inspects or transcodes them. Consumers read payloads but
// must not mutate them; replacement is wholesale, so there is never an
// observable intermediate empty state.
type Store struct {
	mu       sync.Mutex
	payloads map[internal_type.SlotID]payload
}

func NewStore() *Store {
	return &Store{payloads: make(map[internal_type.SlotID]payload)}
}

// Set replaces the slot's payload. Any release hook registered against the
// previous payload runs before it is dropped.
func (s *Store) Set(slot internal_type.SlotID, data []byte, mime string) {
	s.mu.Lock()
	prev, ok := s.payloads[slot]
	s.payloads[slot] = payload{data: data, mime: mime}
	s.mu.Unlock()

	if ok && prev.release != nil {
		prev.release()
	}
}

// Get returns the slot's payload and its declared mime type.
func (s *Store) Get(slot internal_type.SlotID) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[slot]
	if !ok {
		return nil, "", false
	}
	return p.data, p.mime, true
}

// Has reports whether the slot holds a payload.
func (s *Store) Has(slot internal_type.SlotID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.payloads[slot]
	return ok
}

// OnDiscard registers a release hook for the slot's current payload — e.g.
// revoking a playback handle generated from it. The hook runs when the
// payload is discarded or replaced.
func (s *Store) OnDiscard(slot internal_type.SlotID, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payloads[slot]; ok {
		p.release = release
		s.payloads[slot] = p
	}
}

// Discard drops the slot's payload and runs its release hook.
func (s *Store) Discard(slot internal_type.SlotID) {
	s.mu.Lock()
	p, ok := s.payloads[slot]
	delete(s.payloads, slot)
	s.mu.Unlock()

	if ok && p.release != nil {
		p.release()
	}
}

// Reset discards every payload, running release hooks.
func (s *Store) Reset() {
	s.mu.Lock()
	dropped := s.payloads
	s.payloads = make(map[internal_type.SlotID]payload)
	s.mu.Unlock()

	for _, p := range dropped {
		if p.release != nil {
			p.release()
		}
	}
}

// Slots lists the slots currently holding a payload.
func (s *Store) Slots() []internal_type.SlotID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]internal_type.SlotID, 0, len(s.payloads))
	for slot := range s.payloads {
		out = append(out, slot)
	}
	return out
}
