/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package slides maintains the ordered list of frames that defines slide
// order. The order is reconciled against the live scene on every scan:
// frames already known keep their relative position, newly discovered
// frames are appended, and frames that left the scene are dropped. The
// order survives reloads through a persisted id list that seeds the store
// before the first scan has established anything.
package slides

import (
	"bytes"
	"log/slog"
	"sync"

	"drawdeck/internal/domain"
	"drawdeck/internal/frames"
	applog "drawdeck/internal/log"
)

// PersistFunc receives the ordered frame id list whenever the order
// changes to a non-empty value. Implementations must not block for long
// and must swallow their own errors; the store treats persistence as
// fire-and-forget.
type PersistFunc func(ids []string)

// Store holds the ordered frame list for one editing session.
type Store struct {
	mu      sync.Mutex
	ordered []domain.Element
	seed    []string // persisted order, consumed by the first reconcile
	persist PersistFunc
	log     *slog.Logger
}

// NewStore creates a store seeded with a previously persisted id order
// (may be nil). persist may be nil when durability is not wanted.
func NewStore(persistedOrder []string, persist PersistFunc) *Store {
	return &Store{
		seed:    append([]string(nil), persistedOrder...),
		persist: persist,
		log:     applog.WithComponent("slides"),
	}
}

// Ordered returns a copy of the current ordered frame list.
func (s *Store) Ordered() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneElements(s.ordered)
}

// Reconcile merges the given live frame set (as returned by frames.Locate)
// into the established order and returns the result. Known frames keep
// their relative order but are replaced by their latest live objects;
// unknown frames are appended; missing frames are dropped. When nothing
// changed content-wise the previous slice is returned as-is so callers can
// cheaply detect "no update".
func (s *Store) Reconcile(live []domain.Element) []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]domain.Element, len(live))
	for _, f := range live {
		byID[f.ID] = f
	}

	survivors := make([]domain.Element, 0, len(s.ordered))
	seen := make(map[string]bool, len(s.ordered))
	for _, prev := range s.ordered {
		if cur, ok := byID[prev.ID]; ok {
			survivors = append(survivors, cur)
			seen[cur.ID] = true
		}
	}
	candidate := survivors
	for _, f := range live {
		if !seen[f.ID] {
			candidate = append(candidate, f)
		}
	}

	// Unchanged content keeps the previous slice identity so downstream
	// consumers can skip their updates.
	if elementsEqual(s.ordered, candidate) {
		return s.ordered
	}

	// First reconcile with live frames present: try the persisted order,
	// then fall back to reading order.
	if len(s.ordered) == 0 {
		candidate = s.seedOrderLocked(live, byID)
	}

	s.ordered = candidate
	s.persistLocked()
	return s.ordered
}

// seedOrderLocked derives an initial order: persisted ids that still
// resolve to live frames (in persisted order) followed by the remaining
// live frames, or plain reading order when nothing persisted survives.
func (s *Store) seedOrderLocked(live []domain.Element, byID map[string]domain.Element) []domain.Element {
	if len(s.seed) > 0 {
		inSeed := make(map[string]bool, len(s.seed))
		var restored []domain.Element
		for _, id := range s.seed {
			inSeed[id] = true
			if f, ok := byID[id]; ok {
				restored = append(restored, f)
			}
		}
		if len(restored) > 0 {
			for _, f := range live {
				if !inSeed[f.ID] {
					restored = append(restored, f)
				}
			}
			s.log.Debug("slide order restored from persisted ids", slog.Int("count", len(restored)))
			return restored
		}
	}
	return frames.SortReadingOrder(live)
}

// SetOrder replaces the order wholesale (explicit user reorder, e.g.
// drag-and-drop in the slides sidebar). No reconciliation happens.
func (s *Store) SetOrder(order []domain.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = domain.CloneElements(order)
	s.persistLocked()
}

// Playback returns the slide sequence for a presentation run: the current
// order restricted to frames still present in live, or reading order when
// no usable order exists. The result is a fresh slice, safe to freeze in a
// session.
func (s *Store) Playback(live []domain.Element) []domain.Element {
	s.mu.Lock()
	ordered := s.ordered
	s.mu.Unlock()

	if len(ordered) > 0 {
		byID := make(map[string]bool, len(live))
		for _, f := range live {
			byID[f.ID] = true
		}
		var seq []domain.Element
		for _, f := range ordered {
			if byID[f.ID] {
				seq = append(seq, f)
			}
		}
		if len(seq) > 0 {
			return seq
		}
	}
	return frames.SortReadingOrder(live)
}

func (s *Store) persistLocked() {
	if s.persist == nil || len(s.ordered) == 0 {
		return
	}
	ids := make([]string, len(s.ordered))
	for i, f := range s.ordered {
		ids[i] = f.ID
	}
	s.persist(ids)
}

// elementsEqual compares content identity: id plus the mutable fields the
// core reads. The host returns fresh objects per call, so pointer identity
// is useless here (content hash strategy).
func elementsEqual(a, b []domain.Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameElement(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameElement(a, b domain.Element) bool {
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.FrameID == b.FrameID &&
		a.IsDeleted == b.IsDeleted &&
		a.X == b.X && a.Y == b.Y &&
		a.Width == b.Width && a.Height == b.Height &&
		a.Opacity == b.Opacity &&
		bytes.Equal(a.Extra, b.Extra)
}
