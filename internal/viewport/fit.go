/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package viewport

import "drawdeck/internal/domain"

// Zoom clamp matching the host canvas limits.
const (
	MinZoom = 0.1
	MaxZoom = 30.0
)

// DefaultFitPadding is scene-unit breathing room added around a fitted
// region.
const DefaultFitPadding = 32.0

// Transform is a pan/zoom pair in host canvas conventions: a scene point p
// appears on screen at (p + scroll) * zoom.
type Transform struct {
	ScrollX float64
	ScrollY float64
	Zoom    float64
}

// FromAppState extracts the transform portion of an app state.
func FromAppState(st domain.AppState) Transform {
	z := st.Zoom.Value
	if z == 0 {
		z = 1
	}
	return Transform{ScrollX: st.ScrollX, ScrollY: st.ScrollY, Zoom: z}
}

// ApplyTo writes the transform back into an app state.
func (t Transform) ApplyTo(st *domain.AppState) {
	st.ScrollX = t.ScrollX
	st.ScrollY = t.ScrollY
	st.Zoom = domain.Zoom{Value: t.Zoom}
}

// FitTransform computes the transform that centers target (plus padding)
// within a viewport of the given pixel size, zoomed to fit and clamped to
// the host zoom limits. A degenerate target or viewport yields identity.
func FitTransform(target Rect, viewportW, viewportH, padding float64) Transform {
	if target.Empty() || viewportW <= 0 || viewportH <= 0 {
		return Transform{Zoom: 1}
	}
	padded := target.Inset(-padding)
	zoom := min(viewportW/padded.W, viewportH/padded.H)
	zoom = max(MinZoom, min(MaxZoom, zoom))

	centerX := padded.X + padded.W/2
	centerY := padded.Y + padded.H/2
	return Transform{
		ScrollX: viewportW/(2*zoom) - centerX,
		ScrollY: viewportH/(2*zoom) - centerY,
		Zoom:    zoom,
	}
}

// Lerp interpolates between two transforms; t in [0,1].
func Lerp(from, to Transform, t float64) Transform {
	return Transform{
		ScrollX: from.ScrollX + (to.ScrollX-from.ScrollX)*t,
		ScrollY: from.ScrollY + (to.ScrollY-from.ScrollY)*t,
		Zoom:    from.Zoom + (to.Zoom-from.Zoom)*t,
	}
}
