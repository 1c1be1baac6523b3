/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package presentation

// Chrome mirrors presentation state into browser-level side effects:
// entering/leaving fullscreen and the transient "press F11" style hint.
// It is deliberately thin; implementations live with the host shell.
type Chrome interface {
	EnterPresentation()
	ExitPresentation()
}

// NopChrome is the headless default.
type NopChrome struct{}

func (NopChrome) EnterPresentation() {}
func (NopChrome) ExitPresentation()  {}
