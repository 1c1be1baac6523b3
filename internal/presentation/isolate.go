/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package presentation

import "drawdeck/internal/domain"

// Isolate derives the single-slide view of a scene: only the target
// frame's members stay visible, every frame border disappears, and all
// unrelated content is hidden. The one hiding mechanism used throughout is
// the deletion flag; true restoration always comes from the session
// snapshot, never from un-hiding.
//
// The input is not mutated. The result covers every input element exactly
// once, ordered hidden frames, then target content, then the rest. A
// target that no longer matches anything (deleted mid-presentation)
// produces an all-hidden scene rather than an error.
func Isolate(elements []domain.Element, target domain.Element) []domain.Element {
	hiddenFrames := make([]domain.Element, 0, 4)
	var content, rest []domain.Element

	for _, el := range elements {
		switch {
		case el.IsFrame():
			el.IsDeleted = true
			hiddenFrames = append(hiddenFrames, el)
		case el.FrameID == target.ID:
			// Membership intentionally ignores the incoming deletion flag:
			// a member hidden by a previous isolation pass must reappear.
			el.IsDeleted = false
			content = append(content, el)
		default:
			el.IsDeleted = true
			rest = append(rest, el)
		}
	}

	out := make([]domain.Element, 0, len(elements))
	out = append(out, hiddenFrames...)
	out = append(out, content...)
	out = append(out, rest...)
	return out
}
