/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil || sub != "alice" {
		t.Fatalf("verify = %q %v", sub, err)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tok, _ := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if _, err := verifyToken("other-secret", tok); err == nil {
		t.Fatalf("wrong secret must fail")
	}
	parts := strings.Split(tok, ".")
	if _, err := verifyToken("s3cret", parts[0]+".AAAA"); err == nil {
		t.Fatalf("bad signature must fail")
	}
	if _, err := verifyToken("s3cret", "garbage"); err == nil {
		t.Fatalf("malformed token must fail")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tok, _ := signToken("s3cret", "alice", time.Now().Add(-time.Minute))
	if _, err := verifyToken("s3cret", tok); err == nil {
		t.Fatalf("expired token must fail")
	}
}

func TestWithAuthGuardsHandler(t *testing.T) {
	s := &Server{secret: "s3cret"}
	called := false
	h := s.withAuth(func(w http.ResponseWriter, r *http.Request, subject string) {
		called = true
		if subject != "bob" {
			t.Fatalf("subject = %q", subject)
		}
	})

	// No token.
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/drawings", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("missing token: code=%d called=%v", rec.Code, called)
	}

	// Valid token.
	tok, _ := signToken("s3cret", "bob", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/drawings", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h(rec, req)
	if !called {
		t.Fatalf("handler not invoked with valid token")
	}
}
