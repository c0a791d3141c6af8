// Package respond implements ResponseList, the one concrete suspending
// continuation §4.5 describes: a multi-turn handler that re-asks a question
// until the user's answer lands in an accepted set, or gives up after a
// configured number of attempts. It is the Go state-machine shape of
// responses.py's generator-based Response/ResponseList, rewritten per the
// redesign flag that turns cooperative-yield handlers into explicit
// continuation objects (start/resume/close) instead.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package respond

import "strings"

// Injector is the subset of the injection contract ResponseList needs to
// talk back to the client; dispatch.Injector satisfies it.
type Injector interface {
	Ask(question, spoken string) error
	Say(text, spoken string, prompt bool) error
}

// ResponseList waits for one of a set of accepted (case-insensitive)
// answers, re-prompting on a miss and giving up after maxAttempts (0 means
// unlimited, matching the source's maxAttempts=None).
type ResponseList struct {
	inj         Injector
	accepted    map[string]bool
	question    string
	unknown     string
	maxAttempts int
	attempts    int
	onResult    func(answer string) // answer == "" means no accepted answer was given
	closed      bool
}

// New builds a ResponseList. onResult receives the lowercased accepted
// answer, or "" if maxAttempts misses were reached.
func New(inj Injector, responses []string, question, unknown string, maxAttempts int, onResult func(string)) *ResponseList {
	accepted := make(map[string]bool, len(responses))
	for _, r := range responses {
		accepted[strings.ToLower(r)] = true
	}
	return &ResponseList{
		inj:         inj,
		accepted:    accepted,
		question:    question,
		unknown:     unknown,
		maxAttempts: maxAttempts,
		onResult:    onResult,
	}
}

// Start asks the question (if any) and suspends for the first reply. Call
// this once, before returning the ResponseList as a Suspend continuation.
func (r *ResponseList) Start() {
	r.askQuestion()
}

// Resume delivers the next recognized utterance. Reports whether the
// continuation is finished (hit or attempts exhausted).
func (r *ResponseList) Resume(utterance string) (done bool) {
	if r.closed {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(utterance))
	if r.accepted[answer] {
		r.onResult(answer)
		return true
	}

	if r.unknown != "" {
		_ = r.inj.Say(r.unknown, "", false)
	}
	r.attempts++
	if r.maxAttempts > 0 && r.attempts >= r.maxAttempts {
		r.onResult("")
		return true
	}
	r.askQuestion()
	return false
}

// Close tears the continuation down early (ClearContext or session
// teardown) without invoking onResult; the session state driving it has
// already been reset by the caller.
func (r *ResponseList) Close() {
	r.closed = true
}

func (r *ResponseList) askQuestion() {
	if r.question != "" {
		_ = r.inj.Ask(r.question, "")
	}
}
