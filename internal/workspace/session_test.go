/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"drawdeck/internal/canvas"
	"drawdeck/internal/domain"
	"drawdeck/internal/storage"
	"drawdeck/internal/undo"
)

func openTestSession(t *testing.T, cfg Config) (*Session, *storage.Store, *canvas.Memory) {
	t.Helper()
	st, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	d, err := st.CreateDrawing(context.Background(), "Test", "test")
	if err != nil {
		t.Fatalf("create drawing: %v", err)
	}
	cv := canvas.NewMemory(800, 600)
	cfg.Store = st
	cfg.Canvas = cv
	if cfg.SaveDebounce == 0 {
		cfg.SaveDebounce = 20 * time.Millisecond
	}
	s, err := Open(context.Background(), cfg, d.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, st, cv
}

func frame(id string, x, y float64) domain.Element {
	return domain.Element{ID: id, Type: domain.TypeFrame, X: x, Y: y, Width: 200, Height: 150}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestDebouncedSavePersistsScene(t *testing.T) {
	s, st, cv := openTestSession(t, Config{})
	ctx := context.Background()

	cv.ReplaceScene([]domain.Element{
		frame("f1", 0, 0),
		{ID: "r1", Type: "rectangle", FrameID: "f1", X: 10, Y: 10, Width: 20, Height: 20},
	}, nil)

	waitFor(t, func() bool {
		scene, err := st.Scene(ctx, s.Drawing().ID)
		return err == nil && len(scene.Elements) == 2
	})

	// The rescan that rides along with the save must have picked up the frame.
	if got := s.Controller().OrderedFrames(); len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("ordered frames after save = %v", ids(got))
	}
}

func TestDebounceCoalescesBursts(t *testing.T) {
	s, st, cv := openTestSession(t, Config{SaveDebounce: 80 * time.Millisecond})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cv.ReplaceScene([]domain.Element{frame("f1", float64(i), 0)}, nil)
		time.Sleep(10 * time.Millisecond)
	}
	// The burst is inside one debounce window, so nothing is saved yet.
	if _, err := st.Scene(ctx, s.Drawing().ID); err != storage.ErrNotFound {
		t.Fatalf("scene saved too early: %v", err)
	}

	waitFor(t, func() bool {
		scene, err := st.Scene(ctx, s.Drawing().ID)
		return err == nil && len(scene.Elements) == 1 && scene.Elements[0].X == 4
	})
}

func TestFlushWritesImmediately(t *testing.T) {
	s, st, cv := openTestSession(t, Config{SaveDebounce: time.Hour})
	ctx := context.Background()

	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0)}, nil)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	scene, err := st.Scene(ctx, s.Drawing().ID)
	if err != nil {
		t.Fatalf("scene after flush: %v", err)
	}
	if len(scene.Elements) != 1 {
		t.Fatalf("persisted %d elements, want 1", len(scene.Elements))
	}
	// Flush with nothing pending is a no-op.
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("idle flush: %v", err)
	}
}

func TestPresentingSuppressesSave(t *testing.T) {
	s, st, cv := openTestSession(t, Config{SaveDebounce: 20 * time.Millisecond})
	ctx := context.Background()

	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0), frame("f2", 300, 0)}, nil)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	s.Controller().Start()
	if !s.Controller().Presenting() {
		t.Fatal("presentation did not start")
	}
	// The isolation swap mutates the canvas; none of it may be persisted.
	time.Sleep(60 * time.Millisecond)
	scene, err := st.Scene(ctx, s.Drawing().ID)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	for _, el := range scene.Elements {
		if el.IsDeleted {
			t.Fatalf("presentation hiding leaked into the stored scene: %+v", el)
		}
	}
	if len(scene.Elements) != 2 {
		t.Fatalf("stored scene changed while presenting: %d elements", len(scene.Elements))
	}
	s.Controller().Exit()
}

func TestUndoRedoRoundTrip(t *testing.T) {
	mgr := undo.NewManager(undo.Config{MinInterval: time.Nanosecond})
	s, _, cv := openTestSession(t, Config{Undo: mgr, SaveDebounce: time.Hour})

	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0)}, nil)
	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0), frame("f2", 300, 0)}, nil)

	if !s.Undo() {
		t.Fatal("undo reported nothing to undo")
	}
	if got := len(cv.Elements()); got != 1 {
		t.Fatalf("after undo: %d elements, want 1", got)
	}
	if !s.Redo() {
		t.Fatal("redo reported nothing to redo")
	}
	if got := len(cv.Elements()); got != 2 {
		t.Fatalf("after redo: %d elements, want 2", got)
	}
	// Undo below the baseline snapshot is refused.
	if !s.Undo() {
		t.Fatal("undo to baseline failed")
	}
	if !s.Undo() {
		t.Fatal("undo to initial state failed")
	}
	if s.Undo() {
		t.Fatal("undo past the initial state should report false")
	}
}

func TestUndoDisabledWithoutManager(t *testing.T) {
	s, _, cv := openTestSession(t, Config{SaveDebounce: time.Hour})
	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0)}, nil)
	if s.Undo() || s.Redo() {
		t.Fatal("history should be disabled without a manager")
	}
}

func TestEmergencySaveBypassesDebounce(t *testing.T) {
	s, st, cv := openTestSession(t, Config{SaveDebounce: time.Hour})
	ctx := context.Background()

	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0)}, nil)
	if err := s.EmergencySave(); err != nil {
		t.Fatalf("emergency save: %v", err)
	}
	scene, err := st.Scene(ctx, s.Drawing().ID)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	if len(scene.Elements) != 1 {
		t.Fatalf("persisted %d elements, want 1", len(scene.Elements))
	}
}

func TestPreviewRendersAndCaches(t *testing.T) {
	s, _, cv := openTestSession(t, Config{SaveDebounce: time.Hour})
	ctx := context.Background()

	cv.ReplaceScene([]domain.Element{
		frame("f1", 0, 0),
		{ID: "r1", Type: "rectangle", FrameID: "f1", X: 20, Y: 20, Width: 40, Height: 30},
	}, nil)

	blob, err := s.Preview(ctx, "f1", 160, 120)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Fatalf("preview size = %v", img.Bounds())
	}

	again, err := s.Preview(ctx, "f1", 160, 120)
	if err != nil {
		t.Fatalf("cached preview: %v", err)
	}
	if !bytes.Equal(blob, again) {
		t.Fatal("cached preview differs from rendered one")
	}

	if _, err := s.Preview(ctx, "missing", 160, 120); err == nil {
		t.Fatal("preview of unknown frame should fail")
	}
}

func TestSlideOrderSurvivesReopen(t *testing.T) {
	st, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	d, err := st.CreateDrawing(ctx, "Deck", "deck")
	if err != nil {
		t.Fatalf("create drawing: %v", err)
	}

	cv := canvas.NewMemory(800, 600)
	s, err := Open(ctx, Config{Store: st, Canvas: cv, SaveDebounce: time.Hour}, d.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	cv.ReplaceScene([]domain.Element{frame("f1", 0, 0), frame("f2", 300, 0)}, nil)
	s.Controller().Rescan()
	// Reverse the deck and close.
	ordered := s.Controller().OrderedFrames()
	s.Controller().SetOrder([]domain.Element{ordered[1], ordered[0]})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cv2 := canvas.NewMemory(800, 600)
	s2, err := Open(ctx, Config{Store: st, Canvas: cv2, SaveDebounce: time.Hour}, d.ID)
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	defer s2.Close()
	got := s2.Controller().OrderedFrames()
	if len(got) != 2 || got[0].ID != "f2" || got[1].ID != "f1" {
		t.Fatalf("reopened order = %v", ids(got))
	}

	last, err := st.LastDrawingID(ctx)
	if err != nil || last != d.ID {
		t.Fatalf("last drawing = %d %v, want %d", last, err, d.ID)
	}
}

func ids(els []domain.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.ID
	}
	return out
}
