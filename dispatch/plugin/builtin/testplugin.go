// Package builtin ports pysiriproxy's reference config/plugins/*.py
// examples to the Plugin interface: a demonstration plugin exercising
// exact-match, regex, multi-step ask, and ResponseList-confirmation speech
// rules (testPlugin.py), and a reset plugin that clears context whenever an
// object in either direction reports the request is done (resetPlugin.py).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package builtin

import (
	"fmt"

	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/dispatch/respond"
	"github.com/kelsonai/voxrelay/objects"
)

// TestPlugin is the Go counterpart of testPlugin.py: example object filters
// and speech rules showing the four ways a plugin can claim a turn.
type TestPlugin struct{}

func NewTestPlugin() *TestPlugin { return &TestPlugin{} }

func (*TestPlugin) Name() string { return "Test-Plugin" }
func (*TestPlugin) Init() error  { return nil }
func (*TestPlugin) CustomCommands() map[string]dispatch.CustomCommandFn { return nil }

func (*TestPlugin) Filters() []dispatch.FilterSpec {
	return []dispatch.FilterSpec{
		// filterServer: a plain directional example, matching any object
		// from the cloud server and leaving it alone.
		{
			Directions: []dispatch.Direction{dispatch.FromServer},
			Fn: func(_ *dispatch.Injector, _ objects.Object, _ dispatch.Direction) dispatch.FilterResult {
				return dispatch.FilterResult{Action: dispatch.Ignore}
			},
		},
		// filterSpeech: a plain class-scoped example.
		{
			Classes: []string{objects.ClassSpeechRecognized},
			Fn: func(_ *dispatch.Injector, _ objects.Object, _ dispatch.Direction) dispatch.FilterResult {
				return dispatch.FilterResult{Action: dispatch.Ignore}
			},
		},
	}
}

func (p *TestPlugin) Rules() []dispatch.SpeechRule {
	return []dispatch.SpeechRule{
		{
			Matcher: dispatch.Matches("Test Siri Proxy"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				_ = inj.Say("Testing pure string matching", "", false)
				_ = inj.CompleteRequest(true)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
		{
			Matcher: dispatch.Regex(".*Regular test.*"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				_ = inj.Say("Testing a regular expression", "", false)
				_ = inj.CompleteRequest(true)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
		{
			Matcher: dispatch.Matches("Ask me a question"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				c := newAskQuestionFlow(inj)
				c.Start()
				return dispatch.RuleResult{Action: dispatch.Suspend, Continuation: c}
			},
		},
		{
			Matcher: dispatch.Regex(".*Confirmation.*"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				rl := respond.New(inj, []string{"yes", "no"}, "Please confirm...", "Excuse me?", 0,
					func(answer string) {
						_ = inj.Say(fmt.Sprintf("You said %s", answer), "", false)
						_ = inj.CompleteRequest(true)
					})
				rl.Start()
				return dispatch.RuleResult{Action: dispatch.Suspend, Continuation: rl}
			},
		},
	}
}

// askQuestionFlow is a bespoke two-step continuation: the source's
// "Ask me a question" rule isn't a fixed accepted-response set like
// ResponseList, it asks whatever the user wants asked and then echoes the
// answer back, so it gets its own small state machine rather than reusing
// ResponseList.
type askQuestionFlow struct {
	inj   *dispatch.Injector
	stage int
	topic string
}

func newAskQuestionFlow(inj *dispatch.Injector) *askQuestionFlow {
	return &askQuestionFlow{inj: inj}
}

func (f *askQuestionFlow) Start() {
	_ = f.inj.Ask("What question do you want me to ask?", "")
}

func (f *askQuestionFlow) Resume(utterance string) (done bool) {
	switch f.stage {
	case 0:
		f.topic = utterance
		f.stage = 1
		_ = f.inj.Ask(fmt.Sprintf("%s?", f.topic), "")
		return false
	default:
		_ = f.inj.Say(fmt.Sprintf("You answered: %s", utterance), "Thanks for answering.", false)
		_ = f.inj.CompleteRequest(true)
		return true
	}
}

func (f *askQuestionFlow) Close() {}
