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
	"time"

	"drawdeck/internal/domain"
)

// ErrNotFound is returned when a drawing or scene does not exist.
var ErrNotFound = errors.New("not found")

// CreateDrawing inserts a new drawing and returns it with its assigned id.
func (s *Store) CreateDrawing(ctx context.Context, name, slug string) (domain.Drawing, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `INSERT INTO drawings(name, slug, created_at, updated_at) VALUES(?,?,?,?)`,
		name, slug, now, now)
	if err != nil {
		return domain.Drawing{}, fmt.Errorf("insert drawing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Drawing{}, fmt.Errorf("drawing id: %w", err)
	}
	return domain.Drawing{ID: id, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}, nil
}

// GetDrawing returns a drawing by id. ErrNotFound when absent.
func (s *Store) GetDrawing(ctx context.Context, id int64) (domain.Drawing, error) {
	var d domain.Drawing
	var thumb sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, thumbnail, created_at, updated_at FROM drawings WHERE id=?`, id).
		Scan(&d.ID, &d.Name, &d.Slug, &thumb, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Drawing{}, ErrNotFound
	}
	if err != nil {
		return domain.Drawing{}, fmt.Errorf("read drawing: %w", err)
	}
	d.Thumbnail = thumb.String
	return d, nil
}

// ListDrawings returns all drawings, most recently updated first.
func (s *Store) ListDrawings(ctx context.Context) ([]domain.Drawing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, slug, thumbnail, created_at, updated_at FROM drawings ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()
	var out []domain.Drawing
	for rows.Next() {
		var d domain.Drawing
		var thumb sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Slug, &thumb, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Thumbnail = thumb.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// RenameDrawing updates the display name.
func (s *Store) RenameDrawing(ctx context.Context, id int64, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `UPDATE drawings SET name=?, updated_at=? WHERE id=?`, name, now, id)
	if err != nil {
		return fmt.Errorf("rename drawing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDrawing removes a drawing, its scene (via cascade), its kv state and
// its cached previews.
func (s *Store) DeleteDrawing(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM drawings WHERE id=?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete drawing: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM previews WHERE drawing_id=?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete previews: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key=? OR key=?`,
		SlideOrderKey(id), AppStateKey(id)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete kv state: %w", err)
	}
	return tx.Commit()
}

// SaveScene upserts the scene payload for a drawing and touches its
// updated_at stamp.
func (s *Store) SaveScene(ctx context.Context, drawingID int64, scene domain.SceneData) error {
	data, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO scenes(drawing_id, data, updated_at) VALUES(?,?,?)
		ON CONFLICT(drawing_id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		drawingID, data, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert scene: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE drawings SET updated_at=? WHERE id=?`, now, drawingID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("touch drawing: %w", err)
	}
	return tx.Commit()
}

// Scene loads the scene payload for a drawing. ErrNotFound when no scene was
// saved yet.
func (s *Store) Scene(ctx context.Context, drawingID int64) (domain.SceneData, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM scenes WHERE drawing_id=?`, drawingID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SceneData{}, ErrNotFound
	}
	if err != nil {
		return domain.SceneData{}, fmt.Errorf("read scene: %w", err)
	}
	var scene domain.SceneData
	if err := json.Unmarshal(data, &scene); err != nil {
		return domain.SceneData{}, fmt.Errorf("decode scene: %w", err)
	}
	return scene, nil
}
