/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"drawdeck/internal/domain"
)

// Client is a minimal HTTP client for the sync backend API, used by the
// desktop app under the enable_sync feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// FetchToken requests a bearer token and installs it on the client.
func (c *Client) FetchToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	req := map[string]any{"subject": subject, "ttl_seconds": int64(ttl.Seconds())}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// ListDrawings returns available drawings.
func (c *Client) ListDrawings(ctx context.Context) ([]DrawingInfo, error) {
	var list []DrawingInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/drawings", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateDrawing registers a new drawing on the server.
func (c *Client) CreateDrawing(ctx context.Context, name, slug string) (DrawingInfo, error) {
	var d DrawingInfo
	req := map[string]string{"name": name, "slug": slug}
	if err := c.doJSON(ctx, http.MethodPost, "/api/drawings", req, &d); err != nil {
		return DrawingInfo{}, err
	}
	return d, nil
}

// GetScene fetches the latest scene revision for a drawing.
func (c *Client) GetScene(ctx context.Context, drawingID int64) (*SceneEnvelope, error) {
	var env SceneEnvelope
	path := fmt.Sprintf("/api/drawings/%d/scene", drawingID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PutScene uploads a new scene revision and returns the assigned version.
func (c *Client) PutScene(ctx context.Context, drawingID int64, scene domain.SceneData) (int64, error) {
	var resp struct {
		DrawingID int64 `json:"drawing_id"`
		Version   int64 `json:"version"`
	}
	path := fmt.Sprintf("/api/drawings/%d/scene", drawingID)
	if err := c.doJSON(ctx, http.MethodPut, path, scene, &resp); err != nil {
		return 0, err
	}
	return resp.Version, nil
}
