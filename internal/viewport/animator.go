/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package viewport

import (
	"sync"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// frameInterval is the animation step rate (~60 fps).
const frameInterval = 16 * time.Millisecond

// Animator interpolates viewport transforms over time. Animations are
// fire-and-forget: starting a new one supersedes any animation still in
// flight, which simply stops at its next step. Callers never wait for
// completion.
type Animator struct {
	mu    sync.Mutex
	gen   uint64
	apply func(Transform)
}

// NewAnimator returns an animator delivering interpolated transforms to
// apply. The callback runs outside the animator lock.
func NewAnimator(apply func(Transform)) *Animator {
	return &Animator{apply: apply}
}

// Animate eases from one transform to another over the given duration.
// A non-positive duration applies the target immediately.
func (a *Animator) Animate(from, to Transform, duration time.Duration) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	if duration <= 0 {
		a.apply(to)
		return
	}

	go func() {
		tween := gween.New(0, 1, float32(duration.Seconds()), ease.OutQuad)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		last := time.Now()
		for range ticker.C {
			if a.superseded(gen) {
				return
			}
			now := time.Now()
			progress, done := tween.Update(float32(now.Sub(last).Seconds()))
			last = now
			if done {
				a.apply(to)
				return
			}
			a.apply(Lerp(from, to, float64(progress)))
		}
	}()
}

// Stop abandons any in-flight animation at its next step.
func (a *Animator) Stop() {
	a.mu.Lock()
	a.gen++
	a.mu.Unlock()
}

func (a *Animator) superseded(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen != gen
}
