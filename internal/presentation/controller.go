/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package presentation turns the frames of a drawing into a navigable
// slide deck. The Controller is a two-state machine: Idle, or Presenting
// with an active session holding the pre-presentation snapshot, the frozen
// slide sequence, and the current index. Every navigation re-derives the
// isolated scene from the pristine snapshot, so hidden-element state never
// compounds, and exiting restores the snapshot verbatim.
package presentation

import (
	"log/slog"
	"sync"
	"time"

	"drawdeck/internal/canvas"
	"drawdeck/internal/domain"
	"drawdeck/internal/frames"
	applog "drawdeck/internal/log"
	"drawdeck/internal/slides"
	"drawdeck/internal/telemetry"
	"drawdeck/internal/viewport"
)

// Timing of the viewport fit after a scene replacement: the scene needs a
// moment to commit before bounds are recalculated, and the fit itself
// interpolates rather than snapping.
const (
	DefaultSettleDelay = 50 * time.Millisecond
	DefaultFitDuration = 300 * time.Millisecond
)

// NotifyFunc delivers a blocking, user-visible notification (the host's
// alert dialog).
type NotifyFunc func(msg string)

// Config assembles a Controller.
type Config struct {
	Canvas canvas.Canvas
	Slides *slides.Store
	// Input is where capturing listeners are installed while presenting.
	// Optional; nil disables key/wheel interception.
	Input EventSource
	// Chrome mirrors presentation state into fullscreen/hint effects.
	// Optional.
	Chrome Chrome
	// Notify reports precondition failures to the user. Optional.
	Notify NotifyFunc

	// SettleDelay and FitDuration default to DefaultSettleDelay and
	// DefaultFitDuration when zero.
	SettleDelay time.Duration
	FitDuration time.Duration
}

// session is the ephemeral Presenting state: created by Start, destroyed
// by Exit.
type session struct {
	snapshot  []domain.Element // pristine pre-presentation elements
	snapState domain.AppState  // pre-presentation view state
	slides    []domain.Element // frozen slide sequence for this run
	index     int
	prevTool  string
	detach    []func() // input listener teardown
}

// Controller is the presentation state machine.
type Controller struct {
	mu     sync.Mutex
	canvas canvas.Canvas
	store  *slides.Store
	input  EventSource
	chrome Chrome
	notify NotifyFunc
	log    *slog.Logger

	settleDelay time.Duration
	fitDuration time.Duration

	session *session // nil while idle
}

// NewController wires a controller against a host canvas and slide store.
func NewController(cfg Config) *Controller {
	c := &Controller{
		canvas:      cfg.Canvas,
		store:       cfg.Slides,
		input:       cfg.Input,
		chrome:      cfg.Chrome,
		notify:      cfg.Notify,
		log:         applog.WithComponent("presentation"),
		settleDelay: cfg.SettleDelay,
		fitDuration: cfg.FitDuration,
	}
	if c.settleDelay <= 0 {
		c.settleDelay = DefaultSettleDelay
	}
	if c.fitDuration <= 0 {
		c.fitDuration = DefaultFitDuration
	}
	if c.chrome == nil {
		c.chrome = NopChrome{}
	}
	return c
}

// Presenting reports whether a presentation is running.
func (c *Controller) Presenting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// CurrentSlide returns the 0-based slide index, or 0 when idle.
func (c *Controller) CurrentSlide() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.index
}

// SlideCount returns the number of slides in the running session, or 0.
func (c *Controller) SlideCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return len(c.session.slides)
}

// OrderedFrames exposes the live slide order for UI listing/reordering.
func (c *Controller) OrderedFrames() []domain.Element { return c.store.Ordered() }

// SetOrder applies an explicit user reorder (drag-and-drop).
func (c *Controller) SetOrder(order []domain.Element) {
	c.store.SetOrder(order)
	telemetry.SlideReordered(len(order))
}

// Rescan re-derives the frame order from the latest canvas elements.
func (c *Controller) Rescan() []domain.Element {
	return c.store.Reconcile(frames.Locate(c.canvas.Elements()))
}

// SlideMembers answers the membership query used to render slide
// previews.
func (c *Controller) SlideMembers(frame domain.Element) []domain.Element {
	return frames.Members(frame, c.canvas.Elements())
}

// Start snapshots the scene and view state, freezes the slide sequence,
// switches to the laser tool, and shows slide 0. With no live frames in
// the scene it notifies the user and stays idle; nothing is mutated.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return
	}

	elements := c.canvas.Elements()
	live := frames.Locate(elements)
	if len(live) == 0 {
		c.mu.Unlock()
		c.log.Info("presentation start refused: no frames")
		if c.notify != nil {
			c.notify("No frames found! Create some frames to start a presentation.")
		}
		return
	}

	st := c.canvas.AppState()
	s := &session{
		snapshot:  elements,
		snapState: st,
		slides:    c.store.Playback(live),
		prevTool:  st.ActiveTool,
	}
	c.session = s
	c.attachInputLocked(s)
	c.mu.Unlock()

	c.canvas.SetActiveTool(domain.ToolLaser)
	c.chrome.EnterPresentation()
	telemetry.PresentationStarted(len(s.slides))
	c.log.Info("presentation started", slog.Int("slides", len(s.slides)))
	c.showSlide(s, 0)
}

// Next advances one slide; at the last slide it is a no-op.
func (c *Controller) Next() {
	c.mu.Lock()
	s := c.session
	if s == nil || s.index >= len(s.slides)-1 {
		c.mu.Unlock()
		return
	}
	s.index++
	idx := s.index
	c.mu.Unlock()
	c.showSlide(s, idx)
}

// Prev goes back one slide; at slide 0 it is a no-op.
func (c *Controller) Prev() {
	c.mu.Lock()
	s := c.session
	if s == nil || s.index <= 0 {
		c.mu.Unlock()
		return
	}
	s.index--
	idx := s.index
	c.mu.Unlock()
	c.showSlide(s, idx)
}

// Exit restores the snapshot scene and view state verbatim, puts the
// pre-presentation tool back (selection when none was recorded), tears
// down input listeners, and returns to idle.
func (c *Controller) Exit() {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()

	for _, detach := range s.detach {
		detach()
	}

	st := s.snapState
	c.canvas.ReplaceScene(s.snapshot, &st)
	tool := s.prevTool
	if tool == "" {
		tool = domain.ToolSelection
	}
	c.canvas.SetActiveTool(tool)
	c.chrome.ExitPresentation()
	telemetry.PresentationExited(s.index)
	c.log.Info("presentation exited", slog.Int("at_slide", s.index))
}

// showSlide pushes the isolated scene for slide idx and schedules the
// viewport fit. Isolation always starts from the pristine snapshot.
func (c *Controller) showSlide(s *session, idx int) {
	target := s.slides[idx]
	c.canvas.ReplaceScene(Isolate(s.snapshot, target), nil)

	// Let the scene replacement commit before fitting; skip the fit when
	// the session moved on (navigated again or exited) in the meantime.
	time.AfterFunc(c.settleDelay, func() {
		c.mu.Lock()
		stale := c.session != s || s.index != idx
		c.mu.Unlock()
		if stale {
			return
		}
		c.canvas.ScrollToRect(viewport.ElementBounds(target), true, c.fitDuration)
	})
}
