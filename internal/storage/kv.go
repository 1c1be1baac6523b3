/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"drawdeck/internal/domain"
	applog "drawdeck/internal/log"
	"log/slog"
)

// Well-known kv keys. Per-drawing keys are derived via the helpers below.
const (
	KeyLastDrawing = "last_drawing_id"
)

// SlideOrderKey returns the kv key holding the persisted slide order for a drawing.
func SlideOrderKey(drawingID int64) string {
	return "slide_order:" + strconv.FormatInt(drawingID, 10)
}

// AppStateKey returns the kv key holding the persisted view state for a drawing.
func AppStateKey(drawingID int64) string {
	return "app_state:" + strconv.FormatInt(drawingID, 10)
}

// PutJSON marshals v and upserts it under key.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kv %q: %w", key, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, string(data), now)
	if err != nil {
		return fmt.Errorf("upsert kv %q: %w", key, err)
	}
	return nil
}

// GetJSON unmarshals the value stored under key into v. It returns false when
// the key is absent. A value that fails to decode is logged and treated as
// absent so a corrupt row never wedges startup.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read kv %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		applog.WithComponent("storage").Warn("corrupt kv value ignored",
			slog.String("key", key), slog.Any("err", err))
		return false, nil
	}
	return true, nil
}

// DeleteKey removes a kv entry. Missing keys are not an error.
func (s *Store) DeleteKey(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, key); err != nil {
		return fmt.Errorf("delete kv %q: %w", key, err)
	}
	return nil
}

// SlideOrder returns the persisted slide order for a drawing, or nil when none
// was saved yet.
func (s *Store) SlideOrder(ctx context.Context, drawingID int64) ([]string, error) {
	var order []string
	ok, err := s.GetJSON(ctx, SlideOrderKey(drawingID), &order)
	if err != nil || !ok {
		return nil, err
	}
	return order, nil
}

// SaveSlideOrder persists the slide order for a drawing. An empty order
// removes the entry so a fresh scan can reseed later.
func (s *Store) SaveSlideOrder(ctx context.Context, drawingID int64, order []string) error {
	if len(order) == 0 {
		return s.DeleteKey(ctx, SlideOrderKey(drawingID))
	}
	return s.PutJSON(ctx, SlideOrderKey(drawingID), order)
}

// AppState returns the persisted view state for a drawing.
func (s *Store) AppState(ctx context.Context, drawingID int64) (domain.AppState, bool, error) {
	var st domain.AppState
	ok, err := s.GetJSON(ctx, AppStateKey(drawingID), &st)
	return st, ok, err
}

// SaveAppState persists the view state for a drawing.
func (s *Store) SaveAppState(ctx context.Context, drawingID int64, st domain.AppState) error {
	return s.PutJSON(ctx, AppStateKey(drawingID), st)
}

// LastDrawingID returns the id of the most recently open drawing, or 0.
func (s *Store) LastDrawingID(ctx context.Context) (int64, error) {
	var id int64
	ok, err := s.GetJSON(ctx, KeyLastDrawing, &id)
	if err != nil || !ok {
		return 0, err
	}
	return id, nil
}

// SetLastDrawingID records the most recently open drawing.
func (s *Store) SetLastDrawingID(ctx context.Context, id int64) error {
	return s.PutJSON(ctx, KeyLastDrawing, id)
}
