/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package canvas

import (
	"sync"
	"time"

	"drawdeck/internal/domain"
	"drawdeck/internal/viewport"
)

// Memory is a self-contained in-memory Canvas. It mimics the host editor
// closely enough for headless playback: reads return copies, replacements
// are atomic, every mutation fans out a change event, and viewport fits
// animate through the shared animator.
type Memory struct {
	mu       sync.Mutex
	elements []domain.Element
	appState domain.AppState
	files    domain.BinaryFiles

	viewW, viewH float64
	anim         *viewport.Animator

	nextSub int
	subs    map[int]ChangeFunc
}

// NewMemory creates an empty canvas with the given viewport pixel size.
func NewMemory(viewW, viewH float64) *Memory {
	m := &Memory{
		appState: domain.AppState{Zoom: domain.Zoom{Value: 1}, ActiveTool: domain.ToolSelection},
		files:    domain.BinaryFiles{},
		viewW:    viewW,
		viewH:    viewH,
		subs:     map[int]ChangeFunc{},
	}
	m.anim = viewport.NewAnimator(m.applyTransform)
	return m
}

// Elements returns a copy of the current element collection.
func (m *Memory) Elements() []domain.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneElements(m.elements)
}

// AppState returns the current view/application state.
func (m *Memory) AppState() domain.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appState
}

// ReplaceScene swaps the element collection in one step. A non-nil patch
// also replaces the app state and supersedes any in-flight viewport
// animation, since an explicit view write must win.
func (m *Memory) ReplaceScene(elements []domain.Element, patch *domain.AppState) {
	m.mu.Lock()
	m.elements = domain.CloneElements(elements)
	if patch != nil {
		m.anim.Stop()
		m.appState = *patch
	}
	m.mu.Unlock()
	m.emit()
}

// SetActiveTool switches the active input tool.
func (m *Memory) SetActiveTool(tool string) {
	m.mu.Lock()
	m.appState.ActiveTool = tool
	m.mu.Unlock()
	m.emit()
}

// ScrollToRect fits the viewport to r, snapping or animating.
func (m *Memory) ScrollToRect(r viewport.Rect, animate bool, duration time.Duration) {
	m.mu.Lock()
	from := viewport.FromAppState(m.appState)
	m.mu.Unlock()
	to := viewport.FitTransform(r, m.viewW, m.viewH, viewport.DefaultFitPadding)
	if !animate {
		duration = 0
	}
	m.anim.Animate(from, to, duration)
}

// SetFile stores a binary attachment under id.
func (m *Memory) SetFile(id string, payload []byte) {
	m.mu.Lock()
	m.files[id] = payload
	m.mu.Unlock()
	m.emit()
}

// OnChange subscribes fn to scene changes.
func (m *Memory) OnChange(fn ChangeFunc) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// applyTransform is the animator sink: it writes interpolated pan/zoom
// into the app state without emitting change events.
func (m *Memory) applyTransform(tr viewport.Transform) {
	m.mu.Lock()
	tr.ApplyTo(&m.appState)
	m.mu.Unlock()
}

func (m *Memory) emit() {
	m.mu.Lock()
	ev := ChangeEvent{
		Elements: domain.CloneElements(m.elements),
		AppState: m.appState,
		Files:    m.files,
	}
	fns := make([]ChangeFunc, 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
