/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// PutPreview upserts a preview blob for a frame of a drawing and enforces the
// cache size cap via LRU eviction. frameID may be empty for a whole-drawing
// thumbnail.
func (s *Store) PutPreview(ctx context.Context, drawingID int64, frameID string, w, h int, blob []byte) error {
	fid := any(nil)
	if frameID != "" {
		fid = frameID
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `INSERT INTO previews(drawing_id,frame_id,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(drawing_id,frame_id,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		drawingID, fid, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	capBytes := MaxPreviewsBytesFromEnv()
	if capBytes > 0 {
		if err := s.evictPreviewsToFit(ctx, capBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetPreview returns the blob for a preview and updates last_access.
// Returns nil bytes when no preview is cached.
func (s *Store) GetPreview(ctx context.Context, drawingID int64, frameID string, w, h int) ([]byte, error) {
	fid := any(nil)
	if frameID != "" {
		fid = frameID
	}
	// Note: frame_id may be NULL; IS ? compares NULLs in SQLite when arg is nil
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT blob FROM previews WHERE drawing_id=? AND frame_id IS ? AND w=? AND h=?`,
		drawingID, fid, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = s.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE drawing_id=? AND frame_id IS ? AND w=? AND h=?`,
		now, drawingID, fid, w, h)
	return blob, nil
}

// GetOrCreatePreview fetches a preview or generates and stores it using the
// provided generator.
func (s *Store) GetOrCreatePreview(ctx context.Context, drawingID int64, frameID string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := s.GetPreview(ctx, drawingID, frameID, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	if err := s.PutPreview(ctx, drawingID, frameID, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// InvalidatePreviews drops all cached previews for a drawing, typically after
// a scene save changed frame contents.
func (s *Store) InvalidatePreviews(ctx context.Context, drawingID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM previews WHERE drawing_id=?`, drawingID); err != nil {
		return fmt.Errorf("invalidate previews: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size.
func (s *Store) TotalPreviewBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// evictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func (s *Store) evictPreviewsToFit(ctx context.Context, capBytes int64) error {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	// Select victim ids ordered by last_access asc (oldest first), NULLs first
	rows, err := s.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]int64, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Important: close the rows cursor before attempting to write
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	sqlBase := `DELETE FROM previews WHERE id IN (`
	for i := range toDelete {
		if i > 0 {
			sqlBase += ","
		}
		sqlBase += "?"
	}
	sqlBase += ")"
	args := make([]any, len(toDelete))
	for i, v := range toDelete {
		args[i] = v
	}
	if _, err := s.db.ExecContext(ctx, sqlBase, args...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// MaxPreviewsBytesFromEnv reads DDK_PREVIEWS_MAX_BYTES, defaulting to 64MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	v := os.Getenv("DDK_PREVIEWS_MAX_BYTES")
	if v == "" {
		return 64 * 1024 * 1024 // 64MB
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 64 * 1024 * 1024
	}
	return n
}
