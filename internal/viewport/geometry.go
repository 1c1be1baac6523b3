/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport computes pan/zoom transforms that fit a scene region
// into the visible canvas area, and animates transitions between them.
package viewport

import "drawdeck/internal/domain"

// Rect is an axis-aligned rectangle in scene coordinates.
type Rect struct {
	X, Y float64
	W, H float64
}

// Min and Max corners.
func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.MaxX(), o.MaxX())
	maxY := max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset shrinks the rect by d on all sides (negative grows).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// ElementBounds returns the bounding rect of a single element.
func ElementBounds(el domain.Element) Rect {
	return Rect{X: el.X, Y: el.Y, W: el.Width, H: el.Height}
}

// BoundsOf returns the union bounds of all non-deleted elements. ok is
// false when no element contributes.
func BoundsOf(els []domain.Element) (Rect, bool) {
	var out Rect
	found := false
	for _, el := range els {
		if el.IsDeleted {
			continue
		}
		b := ElementBounds(el)
		if !found {
			out = b
			found = true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}
