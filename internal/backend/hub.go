/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	applog "drawdeck/internal/log"
)

const (
	feedWriteWait = 10 * time.Second
	feedQueueSize = 16
)

// hub fans FeedEvents out to every connected websocket client. Slow clients
// get dropped rather than backing up the save path.
type hub struct {
	register   chan *feedClient
	unregister chan *feedClient
	events     chan FeedEvent
	clients    map[*feedClient]struct{}
}

type feedClient struct {
	conn *websocket.Conn
	send chan FeedEvent
}

func newHub() *hub {
	return &hub{
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		events:     make(chan FeedEvent, 64),
		clients:    make(map[*feedClient]struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case ev := <-h.events:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

func (h *hub) broadcast(ev FeedEvent) {
	select {
	case h.events <- ev:
	default:
		// feed is best-effort; drop when saturated
	}
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The desktop client is not a browser; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleFeed upgrades the connection and streams save notifications.
// GET /api/feed?token=...
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := verifyToken(s.secret, token); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid token"))
		return
	}
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.WithComponent("backend").Warn("feed upgrade failed", slog.Any("err", err))
		return
	}
	c := &feedClient{conn: conn, send: make(chan FeedEvent, feedQueueSize)}
	s.hub.register <- c

	go c.writeLoop()
	// Read loop exists only to notice the client going away.
	go func() {
		defer func() {
			s.hub.unregister <- c
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (c *feedClient) writeLoop() {
	defer func() { _ = c.conn.Close() }()
	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
