/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas defines the narrow contract the presentation core needs
// from the host drawing canvas, and ships an in-memory implementation used
// by tests and the headless CLI. The core never mutates scene state in
// place: it always hands a full replacement collection to ReplaceScene,
// which the host applies atomically.
package canvas

import (
	"time"

	"drawdeck/internal/domain"
	"drawdeck/internal/viewport"
)

// ChangeEvent carries the full scene after a mutation: the latest element
// collection, view/application state, and binary attachments.
type ChangeEvent struct {
	Elements []domain.Element
	AppState domain.AppState
	Files    domain.BinaryFiles
}

// ChangeFunc receives change events. Handlers run synchronously on the
// mutating call; they must not mutate the canvas re-entrantly.
type ChangeFunc func(ChangeEvent)

// Canvas is the host surface consumed by the presentation core.
type Canvas interface {
	// Elements returns the current full, flat scene element collection.
	Elements() []domain.Element
	// AppState returns the current view/application state.
	AppState() domain.AppState
	// ReplaceScene atomically replaces the element collection and, when
	// patch is non-nil, the app state alongside it.
	ReplaceScene(elements []domain.Element, patch *domain.AppState)
	// SetActiveTool switches the active input tool.
	SetActiveTool(tool string)
	// ScrollToRect fits the viewport to the given scene region. With
	// animate set, the transition interpolates over duration; otherwise it
	// snaps. The call returns immediately in both cases.
	ScrollToRect(r viewport.Rect, animate bool, duration time.Duration)
	// OnChange subscribes to scene changes. The returned function removes
	// the subscription.
	OnChange(fn ChangeFunc) (unsubscribe func())
}
