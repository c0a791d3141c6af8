package dispatch

import (
	"github.com/kelsonai/voxrelay/cmn/nlog"
	"github.com/kelsonai/voxrelay/objects"
	"github.com/kelsonai/voxrelay/session"
	"github.com/kelsonai/voxrelay/stats"
)

// ErrorResponder is consulted when a speech rule panics while processing an
// utterance and no rule claims it; it supplies the text of the configured
// Responses.Error utterance.
type ErrorResponder interface {
	ErrorResponse() string
}

// Dispatcher holds the plugin registry built once at startup and then
// treated as immutable (§5, "shared resources"), and runs the filter and
// speech-rule pipelines over it.
type Dispatcher struct {
	plugins []Plugin
	errResp ErrorResponder
}

// NewDispatcher builds a Dispatcher over plugins in registration order.
// Init is called on each plugin once, here, before it can see any object.
func NewDispatcher(errResp ErrorResponder, plugins ...Plugin) (*Dispatcher, error) {
	seen := make(map[string]bool, len(plugins))
	d := &Dispatcher{errResp: errResp}
	for _, p := range plugins {
		name := p.Name()
		if seen[name] {
			continue // duplicate names are logged and skipped by the loader before this point
		}
		seen[name] = true
		if err := p.Init(); err != nil {
			continue
		}
		d.plugins = append(d.plugins, p)
	}
	return d, nil
}

// RunFilters implements §4.4's filter pipeline: every plugin's matching
// filters run in registration order; a drop short-circuits; the first
// replacement wins (later ones are recorded-but-ignored, the ranking hook
// §9 reserves for later). Returns the possibly-replaced object and whether
// it should be dropped.
func (d *Dispatcher) RunFilters(inj *Injector, obj objects.Object, dir Direction) (out objects.Object, drop bool) {
	stats.ObjectDispatched(dir.String(), obj.Class)
	out = obj
	var replaced bool

	for _, p := range d.plugins {
		for _, f := range p.Filters() {
			if !f.directionMatches(dir) || !f.classMatches(obj.Class) {
				continue
			}
			res := runFilterSafely(p.Name(), f.Fn, inj, obj, dir)
			switch res.Action {
			case Drop:
				return objects.Object{}, true
			case Replace:
				if !replaced {
					out = res.Object
					replaced = true
				}
			case Ignore:
			}
		}

		if res, matched := runCustomCommand(p, inj, obj, dir); matched {
			switch res.Action {
			case Drop:
				return objects.Object{}, true
			case Replace:
				if !replaced {
					out = res.Object
					replaced = true
				}
			}
		}
	}
	return out, false
}

// runCustomCommand implements BasePlugin's built-in customCommand filter:
// a StartRequest arriving from the client whose utterance names one of the
// plugin's registered custom commands gets routed to that handler instead
// of (or alongside) the plugin's own declared filters.
func runCustomCommand(p Plugin, inj *Injector, obj objects.Object, dir Direction) (FilterResult, bool) {
	if dir != FromClient || obj.Class != objects.ClassStartRequest {
		return FilterResult{}, false
	}
	commands := p.CustomCommands()
	if len(commands) == 0 {
		return FilterResult{}, false
	}
	utterance, _ := obj.Properties["utterance"].(string)
	fn, ok := commands[utterance]
	if !ok {
		return FilterResult{}, false
	}
	return runFilterSafely(p.Name(), func(inj *Injector, obj objects.Object, _ Direction) FilterResult {
		return fn(inj, obj)
	}, inj, obj, dir), true
}

func runFilterSafely(plugin string, fn ObjectFilter, inj *Injector, obj objects.Object, dir Direction) (res FilterResult) {
	defer func() {
		if r := recover(); r != nil {
			err := &FilterError{Plugin: plugin, Panic: r}
			nlog.Warningf("%v", err)
			stats.FilterError()
			res = ignoreResult()
		}
	}()
	return fn(inj, obj, dir)
}

// RunSpeechRules implements §4.4's speech-rule pipeline for a single
// recognized utterance. If the engine has a pending continuation the text
// goes straight to it (absorbing the turn regardless of completion);
// otherwise plugins are tried in order, and within each plugin only its
// first matching rule fires. Reports whether the utterance was claimed
// (the caller must then set block_rest_of_session and swallow the
// original SpeechRecognized object).
func (d *Dispatcher) RunSpeechRules(inj *Injector, engine *session.Engine, text string) (claimed bool) {
	if engine.ResumePending(text) {
		return true
	}

	var panicked bool
	for _, p := range d.plugins {
		for _, rule := range p.Rules() {
			if !rule.Matcher.test(text) {
				continue
			}
			res, rulePanicked := runRuleSafely(p.Name(), rule.Fn, inj, text)
			panicked = panicked || rulePanicked
			switch res.Action {
			case Claimed:
				return true
			case Suspend:
				engine.SetPending(res.Continuation)
				return true
			case NotClaimed:
			}
			break // only the first matching rule per plugin is ever invoked
		}
	}
	if panicked {
		d.ReportSpeechError(inj)
	}
	return false
}

func runRuleSafely(plugin string, fn SpeechRuleFn, inj *Injector, text string) (res RuleResult, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			err := &FilterError{Plugin: plugin, Panic: r}
			nlog.Warningf("%v", err)
			stats.FilterError()
			res = RuleResult{Action: NotClaimed}
			panicked = true
		}
	}()
	return fn(inj, text), false
}

// ReportSpeechError speaks the configured error response and completes the
// request so Siri doesn't hang. RunSpeechRules calls it when a rule panicked
// and no rule claimed the utterance.
func (d *Dispatcher) ReportSpeechError(inj *Injector) {
	_ = inj.Say(d.errResp.ErrorResponse(), "", false)
	_ = inj.CompleteRequest(true)
}
