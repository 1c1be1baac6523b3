/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package frames identifies frame containers within a flat scene element
// collection and answers membership queries. All functions are pure; callers
// debounce upstream so the O(n) scans stay off hot paths.
package frames

import (
	"math"
	"sort"

	"drawdeck/internal/domain"
)

// RowThreshold is the vertical distance (scene units) under which two frames
// are considered to sit on the same row for the default reading order.
// The value is tunable; it has no deeper rationale than matching the
// established on-canvas behavior.
const RowThreshold = 50

// Locate returns all live frame containers in input order.
func Locate(elements []domain.Element) []domain.Element {
	var out []domain.Element
	for _, el := range elements {
		if el.IsFrame() && !el.IsDeleted {
			out = append(out, el)
		}
	}
	return out
}

// Members returns the live contents of a frame: every non-deleted,
// non-frame element whose FrameID references it.
func Members(frame domain.Element, elements []domain.Element) []domain.Element {
	var out []domain.Element
	for _, el := range elements {
		if el.IsDeleted || el.IsFrame() || el.ID == frame.ID {
			continue
		}
		if el.FrameID == frame.ID {
			out = append(out, el)
		}
	}
	return out
}

// SortReadingOrder orders frames top-to-bottom, left-to-right: ascending y,
// with x breaking ties between frames less than RowThreshold apart
// vertically. The input is not modified.
func SortReadingOrder(fs []domain.Element) []domain.Element {
	out := domain.CloneElements(fs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if math.Abs(a.Y-b.Y) > RowThreshold {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}
