/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// drawdeck is the local command line for the drawing store: it manages
// drawings, renders frame previews, and runs headless presentation
// walkthroughs of a deck.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"drawdeck/internal/backend"
	"drawdeck/internal/canvas"
	"drawdeck/internal/config"
	"drawdeck/internal/crash"
	applog "drawdeck/internal/log"
	"drawdeck/internal/storage"
	"drawdeck/internal/telemetry"
	"drawdeck/internal/version"
	"drawdeck/internal/workspace"
)

func usage() {
	fmt.Println("DrawDeck — frame-based slide presentations for drawings")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  drawdeck version|-v|--version            Show version")
	fmt.Println("  drawdeck create <name>                    Create a new drawing")
	fmt.Println("  drawdeck list                             List drawings in the local store")
	fmt.Println("  drawdeck open <id>                        Open drawing <id> and print a summary")
	fmt.Println("  drawdeck present <id>                     Walk through the drawing's slides headlessly")
	fmt.Println("  drawdeck preview <id> <frame|-> <out>     Render a PNG preview of a frame (- for the whole drawing)")
	fmt.Println("  drawdeck login <subject>                  Fetch a backend token and store it in the keychain")
	fmt.Println("  drawdeck logout                           Remove the stored backend token")
}

func main() {
	applog.Init(applog.FromEnv())
	telemetry.InitDefault()
	l := applog.WithComponent("cli")

	dataDir, err := config.DataDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	var sess *workspace.Session
	defer func() {
		crash.Recover(dataDir, func() error {
			if sess == nil {
				return nil
			}
			return sess.EmergencySave()
		})
	}()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	ctx := context.Background()
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())

	case "create":
		if len(args) < 3 {
			fmt.Println("create requires <name>")
			usage()
			os.Exit(2)
		}
		name := strings.Join(args[2:], " ")
		st := mustOpenStore(dataDir, l)
		defer st.Close()
		d, err := st.CreateDrawing(ctx, name, slugify(name))
		if err != nil {
			fail(l, "create failed", err)
		}
		fmt.Printf("Created drawing %d (%s)\n", d.ID, d.Slug)

	case "list":
		st := mustOpenStore(dataDir, l)
		defer st.Close()
		list, err := st.ListDrawings(ctx)
		if err != nil {
			fail(l, "list failed", err)
		}
		if len(list) == 0 {
			fmt.Println("No drawings yet. Use: drawdeck create <name>")
			return
		}
		for _, d := range list {
			fmt.Printf("%6d  %-30s  %s\n", d.ID, d.Name, d.UpdatedAt)
		}

	case "open":
		id := mustID(args, 2)
		st := mustOpenStore(dataDir, l)
		defer st.Close()
		s, err := openSession(ctx, st, id)
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		defer s.Close()
		d := s.Drawing()
		frames := s.Frames()
		fmt.Printf("Opened drawing: %s (id %d)\n", d.Name, d.ID)
		fmt.Printf("Frames: %d\n", len(frames))
		for i, f := range frames {
			fmt.Printf("  %2d. %s\n", i+1, f.ID)
		}

	case "present":
		id := mustID(args, 2)
		st := mustOpenStore(dataDir, l)
		defer st.Close()
		s, err := openSession(ctx, st, id)
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		defer s.Close()
		present(s)

	case "preview":
		if len(args) < 5 {
			fmt.Println("preview requires <id> <frame|-> <out>")
			usage()
			os.Exit(2)
		}
		id := mustID(args, 2)
		frameID := args[3]
		if frameID == "-" {
			frameID = ""
		}
		st := mustOpenStore(dataDir, l)
		defer st.Close()
		s, err := openSession(ctx, st, id)
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		defer s.Close()
		blob, err := s.Preview(ctx, frameID, 640, 360)
		if err != nil {
			fail(l, "preview failed", err)
		}
		if err := os.WriteFile(args[4], blob, 0o644); err != nil {
			fail(l, "write preview failed", err)
		}
		fmt.Println("Wrote", args[4])

	case "login":
		if len(args) < 3 {
			fmt.Println("login requires <subject>")
			usage()
			os.Exit(2)
		}
		cfg, _, err := config.Load()
		if err != nil {
			fail(l, "load config failed", err)
		}
		c := backend.NewClient(cfg.Backend.BaseURL, "")
		tok, err := c.FetchToken(ctx, args[2], 24*time.Hour)
		if err != nil {
			fail(l, "token fetch failed", err)
		}
		if err := config.Save(cfg, tok); err != nil {
			fail(l, "store token failed", err)
		}
		fmt.Println("Token stored for", cfg.Backend.BaseURL)

	case "logout":
		if err := config.ClearToken(); err != nil {
			fail(l, "clear token failed", err)
		}
		fmt.Println("Token removed.")

	default:
		usage()
	}
}

// present runs the slideshow against the in-memory canvas and prints each
// slide as it is shown.
func present(s *workspace.Session) {
	ctrl := s.Controller()
	ctrl.Start()
	if !ctrl.Presenting() {
		os.Exit(1)
	}
	defer ctrl.Exit()

	n := ctrl.SlideCount()
	frames := ctrl.OrderedFrames()
	for {
		idx := ctrl.CurrentSlide()
		if idx < 0 || idx >= len(frames) {
			return
		}
		f := frames[idx]
		fmt.Printf("Slide %d/%d: %s (%d shapes)\n", idx+1, n, f.ID, len(ctrl.SlideMembers(f)))
		if idx >= n-1 {
			return
		}
		ctrl.Next()
	}
}

// openSession wires a session against the headless canvas, with backend
// sync attached when the config enables it and a token is stored.
func openSession(ctx context.Context, st *storage.Store, id int64) (*workspace.Session, error) {
	cfg, token, err := config.Load()
	if err != nil {
		return nil, err
	}
	wcfg := workspace.Config{
		Store:       st,
		Canvas:      canvas.NewMemory(1280, 720),
		SettleDelay: time.Duration(cfg.Presentation.SettleMs) * time.Millisecond,
		FitDuration: time.Duration(cfg.Presentation.FitMs) * time.Millisecond,
	}
	if cfg.General.EnableSync && token != "" {
		wcfg.Sync = backend.NewClient(cfg.Backend.BaseURL, token)
	}
	return workspace.Open(ctx, wcfg, id)
}

func mustOpenStore(dataDir string, l *slog.Logger) *storage.Store {
	st, err := storage.Open(dataDir)
	if err != nil {
		fail(l, "open store failed", err)
	}
	return st
}

func mustID(args []string, pos int) int64 {
	if len(args) <= pos {
		fmt.Println("missing drawing id")
		usage()
		os.Exit(2)
	}
	id, err := strconv.ParseInt(args[pos], 10, 64)
	if err != nil {
		fmt.Println("invalid drawing id:", args[pos])
		os.Exit(2)
	}
	return id
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
