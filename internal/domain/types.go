/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the scene data model consumed by the presentation core.
// Elements are owned by the host canvas; beyond the handful of fields the
// core reads, an element is an opaque payload that must survive every
// transformation byte-for-byte (see Element.Extra).

import "encoding/json"

// TypeFrame is the element type discriminant marking a frame container.
// A frame is a rectangular region of the drawing treated as one slide.
const TypeFrame = "frame"

// Element is one member of the flat scene collection. Only the listed
// fields are interpreted; everything else the host serializes lives in
// Extra and is carried along untouched.
type Element struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	FrameID   string  `json:"frameId,omitempty"`
	IsDeleted bool    `json:"isDeleted"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Opacity   float64 `json:"opacity,omitempty"`

	// Extra holds the remaining host-defined element fields verbatim.
	Extra json.RawMessage `json:"-"`
}

// IsFrame reports whether the element is a frame container.
func (e Element) IsFrame() bool { return e.Type == TypeFrame }

// Tool names understood by the host canvas. The presentation controller
// only ever sets ToolLaser (during playback) and restores whatever was
// active before, falling back to ToolSelection.
const (
	ToolSelection = "selection"
	ToolLaser     = "laser"
)

// Zoom wraps the canvas zoom factor. Kept as a struct because the host
// serializes it as {"value": n}.
type Zoom struct {
	Value float64 `json:"value"`
}

// AppState is the view/application state of the host canvas. It is captured
// as part of the presentation snapshot and restored verbatim on exit.
type AppState struct {
	ScrollX             float64 `json:"scrollX"`
	ScrollY             float64 `json:"scrollY"`
	Zoom                Zoom    `json:"zoom"`
	Theme               string  `json:"theme,omitempty"` // "light" | "dark"
	ViewBackgroundColor string  `json:"viewBackgroundColor,omitempty"`
	GridSize            float64 `json:"gridSize,omitempty"`
	ActiveTool          string  `json:"activeTool,omitempty"`
}

// BinaryFiles maps a file id to its opaque attachment payload (image data
// and the like). The core never inspects the contents.
type BinaryFiles map[string]json.RawMessage

// SceneData is a complete serializable scene: what the host hands out on
// change events and what the persistence layer stores and syncs.
type SceneData struct {
	Elements []Element   `json:"elements"`
	AppState AppState    `json:"appState"`
	Files    BinaryFiles `json:"files,omitempty"`
}

// Drawing is the persistence-level record a scene belongs to.
type Drawing struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Thumbnail string `json:"thumbnail,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// CloneElements returns a copy of the slice with copied Element values.
// Extra payloads are shared; they are immutable by convention.
func CloneElements(els []Element) []Element {
	out := make([]Element, len(els))
	copy(out, els)
	return out
}
