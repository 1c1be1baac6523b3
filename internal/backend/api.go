/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import "encoding/json"

// DrawingInfo is the listing projection of a drawing.
type DrawingInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Thumbnail string `json:"thumbnail,omitempty"`
	UpdatedAt string `json:"updated_at"`
	Version   int64  `json:"version"`
}

// SceneEnvelope wraps a scene revision as served by GET /api/drawings/{id}/scene.
type SceneEnvelope struct {
	DrawingID int64           `json:"drawing_id"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	Scene     json.RawMessage `json:"scene"`
}

// FeedEvent is one message on the websocket feed.
type FeedEvent struct {
	Type      string `json:"type"` // "scene_saved"
	DrawingID int64  `json:"drawing_id"`
	Version   int64  `json:"version"`
}
