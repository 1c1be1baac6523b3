/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous, strictly opt-in usage events for the
// presentation feature, plus optional crash uploads. The event set is
// closed: only the typed constructors in this package can emit, so the
// full wire surface is reviewable in one place.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "drawdeck/internal/log"
	"drawdeck/internal/version"
)

// Event names on the wire.
const (
	evPresentationStart = "presentation_start"
	evPresentationExit  = "presentation_exit"
	evSlideReorder      = "slide_reorder"
	evSceneSave         = "scene_save"
)

// Event is one telemetry datum. Counts are cardinalities only — no ids,
// no names, no scene content ever leaves the machine.
type Event struct {
	Name    string `json:"name"`
	TS      string `json:"ts"`
	App     string `json:"app"`
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`

	// Slides is the deck size for presentation_start and slide_reorder.
	Slides int `json:"slides,omitempty"`
	// AtSlide is the 0-based slide the presenter exited on.
	AtSlide int `json:"at_slide,omitempty"`
	// Elements is the scene element count for scene_save.
	Elements int `json:"elements,omitempty"`
}

func newEvent(name string) Event {
	return Event{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		App:     "drawdeck",
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// Config holds runtime configuration for telemetry and crash uploads.
// Everything is disabled by default.
//
// Environment variables (read by FromEnv):
// - DDK_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - DDK_TELEMETRY_URL: base URL to POST JSON events to
// - DDK_CRASH_UPLOAD_URL: URL to POST crash reports to
// - DDK_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - DDK_TELEMETRY_DEBUG: if set, logs event send attempts
//
// If no URLs are set, events are dropped even when opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("DDK_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("DDK_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("DDK_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("DDK_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("DDK_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client delivers events asynchronously over a bounded queue; when the
// queue is full or the endpoint fails, events are dropped, never blocking
// the editor.
type Client struct {
	cfg    Config
	log    *slog.Logger
	cli    *http.Client
	q      chan Event
	once   sync.Once
	closed chan struct{}
}

var defaultClient *Client
var defaultOnce sync.Once

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultOnce.Do(func() {
		NewDefault(FromEnv())
	})
}

// NewDefault creates and installs the default client with cfg.
func NewDefault(cfg Config) {
	defaultClient = New(cfg)
}

// New constructs a client.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan Event, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether anonymous telemetry is enabled using the default client.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// PresentationStarted records a presentation starting over a deck of the
// given size.
func (c *Client) PresentationStarted(slides int) {
	ev := newEvent(evPresentationStart)
	ev.Slides = slides
	c.enqueue(ev)
}

// PresentationExited records the presenter leaving at the given slide.
func (c *Client) PresentationExited(atSlide int) {
	ev := newEvent(evPresentationExit)
	ev.AtSlide = atSlide
	c.enqueue(ev)
}

// SlideReordered records an explicit deck reorder of the given size.
func (c *Client) SlideReordered(slides int) {
	ev := newEvent(evSlideReorder)
	ev.Slides = slides
	c.enqueue(ev)
}

// SceneSaved records a persisted scene of the given element count.
func (c *Client) SceneSaved(elements int) {
	ev := newEvent(evSceneSave)
	ev.Elements = elements
	c.enqueue(ev)
}

// Default-client variants, safe to call from anywhere.
func PresentationStarted(slides int) { InitDefault(); defaultClient.PresentationStarted(slides) }
func PresentationExited(atSlide int) { InitDefault(); defaultClient.PresentationExited(atSlide) }
func SlideReordered(slides int)      { InitDefault(); defaultClient.SlideReordered(slides) }
func SceneSaved(elements int)        { InitDefault(); defaultClient.SceneSaved(elements) }

func (c *Client) enqueue(ev Event) {
	if !c.Enabled() {
		return
	}
	select {
	case c.q <- ev:
	default:
		// drop if queue full
	}
}

// Flush waits briefly for the queue to drain.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(c.q) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the background goroutine.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.q:
			c.send(ev)
		}
	}
}

func (c *Client) send(ev Event) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent", slog.String("name", ev.Name))
	}
}

// UploadCrash posts an already-serialized crash report to the configured crash URL if opt-in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.cli.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash using default client.
func UploadCrash(report []byte) { InitDefault(); defaultClient.UploadCrash(report) }
