// Package dispatch runs the filter and speech-rule pipelines described in
// §4.4 over decoded objects and recognized utterances, and exposes the
// injection contract (say/ask/make_view/show_directions/complete_request/
// reset_context) that plugins use to talk back to the client. Plugins are
// registered at startup (dispatch/plugin/builtin has the reference set,
// loader.go resolves configured names against a registry) rather than
// discovered by scanning loadable code the way pysiriproxy's PluginManager
// imports .py modules by filename — Go has no equivalent of that, so a
// plugin here is a value satisfying the Plugin interface, and "discovery"
// means matching configured identifiers against a compiled-in registry.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package dispatch

import (
	"regexp"
	"strings"

	"github.com/kelsonai/voxrelay/objects"
)

// Direction is which side an object arrived from, mirroring directions.py's
// From_iPhone/From_Server decorators.
type Direction int

const (
	FromClient Direction = iota
	FromServer
)

func (d Direction) String() string {
	if d == FromClient {
		return "client"
	}
	return "server"
}

// FilterAction is what an object filter decided to do with an object.
type FilterAction int

const (
	Ignore FilterAction = iota
	Drop
	Replace
)

// FilterResult is the return value of an ObjectFilter.
type FilterResult struct {
	Action FilterAction
	Object objects.Object // valid only when Action == Replace
}

func ignoreResult() FilterResult               { return FilterResult{Action: Ignore} }
func dropResult() FilterResult                  { return FilterResult{Action: Drop} }
func replaceResult(o objects.Object) FilterResult { return FilterResult{Action: Replace, Object: o} }

// ObjectFilter is invoked for a decoded object once its (direction, class)
// constraints match.
type ObjectFilter func(inj *Injector, obj objects.Object, dir Direction) FilterResult

// FilterSpec constrains which (direction, class) combinations a filter
// applies to. A nil/empty Directions or Classes set matches anything, the
// equivalent of not stacking that decorator in the source plugin.
type FilterSpec struct {
	Directions []Direction
	Classes    []string
	Fn         ObjectFilter
}

func (f FilterSpec) directionMatches(dir Direction) bool {
	if len(f.Directions) == 0 {
		return true
	}
	for _, d := range f.Directions {
		if d == dir {
			return true
		}
	}
	return false
}

func (f FilterSpec) classMatches(class string) bool {
	if len(f.Classes) == 0 {
		return true
	}
	for _, c := range f.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// RuleAction is what a speech rule decided about an utterance.
type RuleAction int

const (
	NotClaimed RuleAction = iota
	Claimed
	Suspend
)

// RuleResult is the return value of a SpeechRuleFn.
type RuleResult struct {
	Action       RuleAction
	Continuation Continuation // valid only when Action == Suspend
}

// Continuation is the suspending-handler contract dispatch hands to
// session.Engine.SetPending. It has the same method set as
// session.Continuation, so plugins name this interface and any value of it
// can be passed to SetPending as is.
type Continuation interface {
	Resume(utterance string) (done bool)
	Close()
}

// SpeechMatcher decides whether a speech rule applies to recognized text.
// Construct one with Matches or Regex.
type SpeechMatcher struct {
	exact string
	re    *regexp.Regexp
}

// Matches builds a matcher equivalent to speechRules.py's @matches decorator:
// an exact, case-insensitive, whitespace-trimmed comparison.
func Matches(text string) SpeechMatcher {
	return SpeechMatcher{exact: strings.ToLower(text)}
}

// Regex builds a matcher equivalent to @regex: a case-insensitive regular
// expression applied to the full recognized text.
func Regex(pattern string) SpeechMatcher {
	return SpeechMatcher{re: regexp.MustCompile("(?i)" + pattern)}
}

func (m SpeechMatcher) test(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return m.exact == strings.ToLower(strings.TrimSpace(text))
}

// SpeechRuleFn handles recognized text once its matcher fires. It may yield
// a suspend by returning Suspend with a Continuation (the ResponseList
// equivalent of a generator's first `yield`), or settle the turn itself by
// calling the Injector and returning Claimed.
type SpeechRuleFn func(inj *Injector, text string) RuleResult

// SpeechRule pairs a matcher with its handler, tried in registration order.
type SpeechRule struct {
	Matcher SpeechMatcher
	Fn      SpeechRuleFn
}

// CustomCommandFn handles a StartRequest whose utterance names a custom
// command this plugin registered, per BasePlugin.customCommandMap.
type CustomCommandFn func(inj *Injector, obj objects.Object) FilterResult

// Plugin is the unit of registration a Go rewrite of BasePlugin reduces to:
// no decorators, no reflection over method names, just two slices built by
// Filters/Rules and an optional Init hook.
type Plugin interface {
	// Name must be unique across the registry; duplicates are rejected at
	// load time per §6's plugin-discovery contract.
	Name() string
	// Init is invoked once, after construction, before the plugin's filters
	// or rules can fire.
	Init() error
	Filters() []FilterSpec
	Rules() []SpeechRule
	// CustomCommands maps a command name to its handler: BasePlugin's
	// built-in customCommand filter, which matches a StartRequest from the
	// client whose utterance equals one of these names. Returning nil is
	// the common case of a plugin with no custom commands.
	CustomCommands() map[string]CustomCommandFn
}
