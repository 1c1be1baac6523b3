/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot represents a reversible scene blob for a drawing.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// TS is when the snapshot was captured.
type Snapshot struct {
	DrawingID int64
	Blob      []byte
	TS        time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerDrawing limits number of snapshots per drawing kept in memory (0 means unlimited).
	MaxPerDrawing int
	// MinInterval coalesces snapshots captured within the interval for the same drawing,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per drawing with performance safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-drawing stacks
	undo map[int64][]Snapshot
	redo map[int64][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[int64][]Snapshot), redo: make(map[int64][]Snapshot)}
}

// PushSnapshot records a snapshot for a drawing. If within MinInterval from the last
// snapshot on the same drawing, it replaces the last one. Clears redo stack for that drawing.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.DrawingID]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[s.DrawingID] = stack
			m.redo[s.DrawingID] = nil
			m.enforceCapsLocked(s.DrawingID)
			return
		}
	}
	// Push new
	stack = append(stack, s)
	m.undo[s.DrawingID] = stack
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the drawing
	m.redo[s.DrawingID] = nil
	m.enforceCapsLocked(s.DrawingID)
}

// Undo pops from the drawing undo stack and pushes to redo stack, returning the snapshot.
func (m *Manager) Undo(drawingID int64) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[drawingID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[drawingID] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[drawingID] = append(m.redo[drawingID], s)
	return s, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(drawingID int64) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[drawingID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[drawingID] = r[:len(r)-1]
	m.undo[drawingID] = append(m.undo[drawingID], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(drawingID)
	return s, true
}

// PeekUndo returns the top of the undo stack without popping it.
func (m *Manager) PeekUndo(drawingID int64) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[drawingID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	return stack[len(stack)-1], true
}

// Depth reports the undo and redo stack depths for a drawing.
func (m *Manager) Depth(drawingID int64) (undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[drawingID]), len(m.redo[drawingID])
}

// ClearDrawing clears undo/redo stacks for a drawing to free memory.
func (m *Manager) ClearDrawing(drawingID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[drawingID] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, drawingID)
	delete(m.redo, drawingID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, drawings int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drawings = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, drawings, totalSnapshots
}

func (m *Manager) enforceCapsLocked(drawingID int64) {
	// Per-drawing depth cap
	if m.cfg.MaxPerDrawing > 0 {
		stack := m.undo[drawingID]
		if len(stack) > m.cfg.MaxPerDrawing {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerDrawing
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[drawingID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all drawings
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		var oldestDrawing int64
		oldestIdx := -1
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestDrawing = id
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestDrawing]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestDrawing] = stack[1:]
		if len(m.undo[oldestDrawing]) == 0 {
			delete(m.undo, oldestDrawing)
		}
	}
}
