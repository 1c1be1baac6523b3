/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package presentation

// Key identifies the navigation keys the controller cares about. Values
// mirror the host's key names.
type Key string

const (
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeySpace      Key = " "
	KeyEscape     Key = "Escape"
)

// EventSource is the window-level surface capturing listeners attach to.
// Handlers returning true consume the event: the host must prevent its
// default behavior and stop propagation so the underlying canvas never
// sees it.
type EventSource interface {
	AddKeyListener(fn func(Key) bool) (remove func())
	AddWheelListener(fn func() bool) (remove func())
}

// attachInputLocked installs the capturing key and wheel listeners for a
// session and records their teardown. Called with c.mu held on the
// Idle→Presenting transition; Exit runs the teardown, so repeated
// start/exit cycles never leak listeners.
func (c *Controller) attachInputLocked(s *session) {
	if c.input == nil {
		return
	}
	s.detach = append(s.detach,
		c.input.AddKeyListener(c.handleKey),
		c.input.AddWheelListener(c.handleWheel),
	)
}

// handleKey maps navigation keys to state machine transitions. Everything
// else passes through to the host.
func (c *Controller) handleKey(k Key) bool {
	if !c.Presenting() {
		return false
	}
	switch k {
	case KeyArrowRight, KeyArrowDown, KeySpace:
		c.Next()
		return true
	case KeyArrowLeft, KeyArrowUp:
		c.Prev()
		return true
	case KeyEscape:
		c.Exit()
		return true
	}
	return false
}

// handleWheel suppresses scroll/zoom entirely during playback so the
// fitted viewport cannot be disturbed.
func (c *Controller) handleWheel() bool {
	return c.Presenting()
}
