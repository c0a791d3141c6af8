// Package session implements the per-client-connection reference-id state
// machine described in §4.3: tracking the current correlation id, deciding
// whether an upstream object belongs to a session a local handler has
// claimed, and propagating refId updates to the paired direction.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"sync"

	"github.com/kelsonai/voxrelay/cmn/debug"
	"github.com/kelsonai/voxrelay/cmn/nlog"
	"github.com/kelsonai/voxrelay/stats"
)

// Continuation is a suspended multi-turn speech handler. dispatch/respond
// implements this for ResponseList; the session engine only needs to
// deliver text to it and close it, never to inspect its internals.
type Continuation interface {
	// Resume delivers the next recognized utterance. done reports whether
	// the continuation has completed (and should be cleared).
	Resume(utterance string) (done bool)
	// Close tears down the continuation early, e.g. on ClearContext or
	// session teardown, delivering a termination signal to its owner.
	Close()
}

// State is the per-connection session data §3 calls out: last_ref_id,
// block_rest_of_session, consumed_handshake/headers_done (tracked by the
// frame codec itself, not duplicated here), and pending_response.
type State struct {
	mu sync.Mutex

	lastRefID    string
	blocking     bool
	pending      Continuation
}

// Engine owns a State and the paired Engine for the opposite connection in
// the same forwarding pair, so refId propagation (§4.3 step 2) can reach
// across both directions. Pair is wired in by proxy.Pair after both engines
// exist.
type Engine struct {
	state *State
	peer  *Engine
}

// New returns a fresh engine with empty state.
func New() *Engine {
	return &Engine{state: &State{}}
}

// Pair links two engines so that adopting a new refId/aceId on one
// propagates to the other, per §4.3 step 2 ("propagate this id to the
// paired upstream-direction engine as well").
func Pair(a, b *Engine) {
	a.peer = b
	b.peer = a
}

// LastRefID returns the most recently adopted correlation id.
func (e *Engine) LastRefID() string {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.lastRefID
}

// Blocking reports whether the session is currently claimed (suppressing
// upstream forwarding for lastRefID).
func (e *Engine) Blocking() bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.blocking
}

// ShouldDrop reports whether an upstream object carrying refID should be
// dropped per §4.3 step 1: it matches the blocked session's last refId.
func (e *Engine) ShouldDrop(refID string) bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.blocking && refID != "" && refID == e.state.lastRefID
}

// AdoptAceID handles §4.3 step 2: a fresh request carries a new aceId,
// which becomes the session's correlation id. If the session was blocking a
// different id, the block clears; propagates to the peer engine too.
func (e *Engine) AdoptAceID(aceID string) {
	if aceID == "" {
		return
	}
	e.adopt(aceID)
	if e.peer != nil {
		e.peer.adopt(aceID)
	}
}

func (e *Engine) adopt(id string) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.blocking && e.state.lastRefID != id {
		e.state.blocking = false
	}
	e.state.lastRefID = id
}

// Claim marks the session as claimed by a speech rule: block_rest_of_session
// becomes true for the current refId, per §4.3 step 4.
func (e *Engine) Claim() {
	e.state.mu.Lock()
	e.state.blocking = true
	e.state.mu.Unlock()
}

// AdoptInjectedRefID handles an object synthesized by a plugin that carries
// its own refId (§4.3, "for injected objects"): update lastRefID and clear
// the block if the id changed.
func (e *Engine) AdoptInjectedRefID(refID string) {
	if refID == "" {
		return
	}
	e.state.mu.Lock()
	if e.state.lastRefID != refID {
		e.state.blocking = false
	}
	e.state.lastRefID = refID
	e.state.mu.Unlock()
}

// SetPending installs a suspended multi-turn continuation. Per the
// invariant in §3, at most one continuation is held at a time — installing
// a new one while one is already pending closes the old one first, which
// should not normally happen (dispatch only installs one per claimed
// utterance) but keeps the invariant honest under a programming error.
func (e *Engine) SetPending(c Continuation) {
	e.state.mu.Lock()
	old := e.state.pending
	e.state.pending = c
	e.state.mu.Unlock()
	if c != nil {
		stats.PendingResponseOpened()
	}
	if old != nil {
		debug.Assert(false, "session: SetPending overwrote an existing continuation")
		stats.PendingResponseClosed()
		old.Close()
	}
}

// Pending returns the currently installed continuation, or nil.
func (e *Engine) Pending() Continuation {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.pending
}

// ResumePending delivers utterance to the pending continuation, if any,
// clearing it when the continuation reports completion. Reports whether a
// continuation was present (and therefore the utterance was consumed by
// it rather than the normal speech-rule pipeline).
func (e *Engine) ResumePending(utterance string) (consumed bool) {
	e.state.mu.Lock()
	c := e.state.pending
	e.state.mu.Unlock()
	if c == nil {
		return false
	}
	if done := c.Resume(utterance); done {
		e.state.mu.Lock()
		cleared := e.state.pending == c
		if cleared {
			e.state.pending = nil
		}
		e.state.mu.Unlock()
		if cleared {
			stats.PendingResponseClosed() // else ClearContext already counted it
		}
	}
	return true
}

// ClearContext resets last_ref_id, block_rest_of_session, and closes any
// pending_response, per §4.3's ClearContext row. A ClearContext observed on
// either direction's frame stream calls this on both paired engines.
func (e *Engine) ClearContext() {
	e.state.mu.Lock()
	pending := e.state.pending
	e.state.lastRefID = ""
	e.state.blocking = false
	e.state.pending = nil
	e.state.mu.Unlock()

	if pending != nil {
		stats.PendingResponseClosed()
		pending.Close()
	}
	nlog.Debugf(5, "session: context cleared")
}

// Teardown closes any pending continuation on connection shutdown, without
// otherwise touching state (the Engine is discarded along with its pair).
func (e *Engine) Teardown() {
	e.state.mu.Lock()
	pending := e.state.pending
	e.state.pending = nil
	e.state.mu.Unlock()
	if pending != nil {
		stats.PendingResponseClosed()
		pending.Close()
	}
}
