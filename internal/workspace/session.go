/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package workspace glues one open drawing together: it loads the scene
// from the local store into a canvas, keeps the slide order reconciled as
// the scene changes, debounces persistence, feeds the undo manager, and
// hosts the presentation controller. One Session per open drawing.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"drawdeck/internal/backend"
	"drawdeck/internal/canvas"
	"drawdeck/internal/domain"
	"drawdeck/internal/frames"
	applog "drawdeck/internal/log"
	"drawdeck/internal/presentation"
	"drawdeck/internal/previews"
	"drawdeck/internal/slides"
	"drawdeck/internal/storage"
	"drawdeck/internal/telemetry"
	"drawdeck/internal/undo"
)

// DefaultSaveDebounce is how long the session waits after the last scene
// change before persisting. Changes arriving within the window restart it.
const DefaultSaveDebounce = 500 * time.Millisecond

// Config assembles a Session.
type Config struct {
	Store  *storage.Store
	Canvas canvas.Canvas
	// Undo is optional; nil disables snapshot history.
	Undo *undo.Manager
	// Sync is optional; when set, every persisted scene is also pushed to
	// the backend. Push failures are logged, never surfaced to the editor.
	Sync *backend.Client

	// Input, Chrome and Notify are handed through to the presentation
	// controller. All optional.
	Input  presentation.EventSource
	Chrome presentation.Chrome
	Notify presentation.NotifyFunc

	// SaveDebounce defaults to DefaultSaveDebounce when zero.
	SaveDebounce time.Duration
	SettleDelay  time.Duration
	FitDuration  time.Duration
}

// Session is the live editing state for one open drawing.
type Session struct {
	mu      sync.Mutex
	store   *storage.Store
	cv      canvas.Canvas
	undoMgr *undo.Manager
	sync    *backend.Client
	log     *slog.Logger

	drawing domain.Drawing
	slides  *slides.Store
	ctrl    *presentation.Controller

	debounce  time.Duration
	timer     *time.Timer
	dirty     bool
	restoring bool // applying an undo/redo snapshot; skip history capture
	unsub     func()
	closed    bool
}

// Open loads the drawing's persisted scene into the canvas and returns a
// running session. A drawing without a stored scene opens empty.
func Open(ctx context.Context, cfg Config, drawingID int64) (*Session, error) {
	d, err := cfg.Store.GetDrawing(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("open drawing %d: %w", drawingID, err)
	}
	scene, err := cfg.Store.Scene(ctx, drawingID)
	if err == storage.ErrNotFound {
		scene = domain.SceneData{AppState: domain.AppState{Zoom: domain.Zoom{Value: 1}}}
	} else if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	order, err := cfg.Store.SlideOrder(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("load slide order: %w", err)
	}

	s := &Session{
		store:    cfg.Store,
		cv:       cfg.Canvas,
		undoMgr:  cfg.Undo,
		sync:     cfg.Sync,
		log:      applog.WithComponent("workspace").With("drawing", drawingID),
		drawing:  d,
		debounce: cfg.SaveDebounce,
	}
	if s.debounce <= 0 {
		s.debounce = DefaultSaveDebounce
	}
	s.slides = slides.NewStore(order, func(ids []string) {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.SaveSlideOrder(sctx, drawingID, ids); err != nil {
			s.log.Warn("persist slide order failed", "error", err)
		}
	})
	s.ctrl = presentation.NewController(presentation.Config{
		Canvas:      cfg.Canvas,
		Slides:      s.slides,
		Input:       cfg.Input,
		Chrome:      cfg.Chrome,
		Notify:      cfg.Notify,
		SettleDelay: cfg.SettleDelay,
		FitDuration: cfg.FitDuration,
	})

	s.cv.ReplaceScene(scene.Elements, &scene.AppState)
	s.ctrl.Rescan()
	if s.undoMgr != nil {
		s.pushSnapshot(domain.SceneData{Elements: s.cv.Elements(), AppState: s.cv.AppState()})
	}
	s.unsub = s.cv.OnChange(s.onChange)

	if err := cfg.Store.SetLastDrawingID(ctx, drawingID); err != nil {
		s.log.Warn("record last drawing failed", "error", err)
	}
	return s, nil
}

// Drawing returns the persistence record this session edits.
func (s *Session) Drawing() domain.Drawing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// Controller exposes the presentation state machine for this drawing.
func (s *Session) Controller() *presentation.Controller { return s.ctrl }

// onChange runs synchronously on every canvas mutation. Scene edits made
// by the presentation itself (isolation swaps, snapshot restore) are
// ephemeral and never persisted or recorded in history.
func (s *Session) onChange(ev canvas.ChangeEvent) {
	if s.ctrl.Presenting() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.undoMgr != nil && !s.restoring {
		s.pushSnapshot(domain.SceneData{Elements: ev.Elements, AppState: ev.AppState, Files: ev.Files})
	}
	s.dirty = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushTimer)
	} else {
		s.timer.Reset(s.debounce)
	}
}

func (s *Session) pushSnapshot(scene domain.SceneData) {
	blob, err := json.Marshal(scene)
	if err != nil {
		s.log.Warn("snapshot encode failed", "error", err)
		return
	}
	s.undoMgr.PushSnapshot(undo.Snapshot{DrawingID: s.drawing.ID, Blob: blob, TS: time.Now()})
}

func (s *Session) flushTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.Error("debounced save failed", "error", err)
	}
}

// Flush persists the current scene immediately if there are unsaved
// changes: slide order is reconciled first, then the scene is written,
// cached previews for the drawing are invalidated, and the scene is
// pushed to the backend when sync is configured.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	if s.timer != nil {
		s.timer.Stop()
	}
	id := s.drawing.ID
	s.mu.Unlock()

	if !s.ctrl.Presenting() {
		s.ctrl.Rescan()
	}
	scene := domain.SceneData{Elements: s.cv.Elements(), AppState: s.cv.AppState()}
	if err := s.store.SaveScene(ctx, id, scene); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save scene: %w", err)
	}
	if err := s.store.SaveAppState(ctx, id, scene.AppState); err != nil {
		s.log.Warn("save app state failed", "error", err)
	}
	telemetry.SceneSaved(len(scene.Elements))
	if err := s.store.InvalidatePreviews(ctx, id); err != nil {
		s.log.Warn("invalidate previews failed", "error", err)
	}
	if s.sync != nil {
		if ver, err := s.sync.PutScene(ctx, id, scene); err != nil {
			s.log.Warn("backend push failed", "error", err)
		} else {
			s.log.Debug("scene pushed", "version", ver)
		}
	}
	return nil
}

// EmergencySave writes the current scene synchronously, bypassing the
// debounce and dirty tracking. Wired as the crash recovery save hook.
func (s *Session) EmergencySave() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	scene := domain.SceneData{Elements: s.cv.Elements(), AppState: s.cv.AppState()}
	return s.store.SaveScene(ctx, s.drawing.ID, scene)
}

// Undo restores the previous recorded scene state. It reports false when
// there is nothing to undo or history is disabled.
func (s *Session) Undo() bool {
	return s.restoreStep(func() (undo.Snapshot, bool) {
		// The top of the stack is the current state; the entry below it is
		// the one to restore. A single entry means there is no past state.
		if depth, _ := s.undoMgr.Depth(s.drawing.ID); depth < 2 {
			return undo.Snapshot{}, false
		}
		if _, ok := s.undoMgr.Undo(s.drawing.ID); !ok {
			return undo.Snapshot{}, false
		}
		return s.undoMgr.PeekUndo(s.drawing.ID)
	})
}

// Redo reapplies the most recently undone state.
func (s *Session) Redo() bool {
	return s.restoreStep(func() (undo.Snapshot, bool) {
		return s.undoMgr.Redo(s.drawing.ID)
	})
}

func (s *Session) restoreStep(pick func() (undo.Snapshot, bool)) bool {
	if s.undoMgr == nil || s.ctrl.Presenting() {
		return false
	}
	snap, ok := pick()
	if !ok {
		return false
	}
	var scene domain.SceneData
	if err := json.Unmarshal(snap.Blob, &scene); err != nil {
		s.log.Error("snapshot decode failed", "error", err)
		return false
	}
	s.mu.Lock()
	s.restoring = true
	s.mu.Unlock()
	s.cv.ReplaceScene(scene.Elements, &scene.AppState)
	s.mu.Lock()
	s.restoring = false
	s.dirty = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushTimer)
	} else {
		s.timer.Reset(s.debounce)
	}
	s.mu.Unlock()
	s.ctrl.Rescan()
	return true
}

// Preview returns a cached PNG preview for one frame of the drawing,
// rendering and caching it on miss. An empty frameID previews the whole
// drawing.
func (s *Session) Preview(ctx context.Context, frameID string, w, h int) ([]byte, error) {
	return s.store.GetOrCreatePreview(ctx, s.drawing.ID, frameID, w, h, func(context.Context) ([]byte, error) {
		els := s.cv.Elements()
		opt := previews.Options{Width: w, Height: h, Theme: s.cv.AppState().Theme}
		if frameID == "" {
			return previews.DrawingPNG(els, opt)
		}
		for _, el := range els {
			if el.ID == frameID && el.Type == domain.TypeFrame && !el.IsDeleted {
				return previews.FramePNG(els, el, opt)
			}
		}
		return nil, fmt.Errorf("frame %q not found", frameID)
	})
}

// Frames returns the live frames of the scene in reading order. Handy for
// hosts that render a slide panel without starting a presentation.
func (s *Session) Frames() []domain.Element {
	return frames.SortReadingOrder(frames.Locate(s.cv.Elements()))
}

// Close flushes pending changes, detaches from the canvas and clears the
// drawing's history. The canvas and store stay usable.
func (s *Session) Close() error {
	if s.ctrl.Presenting() {
		s.ctrl.Exit()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.Flush(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	if s.undoMgr != nil {
		s.undoMgr.ClearDrawing(s.drawing.ID)
	}
	return err
}
