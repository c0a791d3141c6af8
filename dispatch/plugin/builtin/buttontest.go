package builtin

import (
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/objects"
)

// ButtonTest is the Go counterpart of buttonTest.py: demonstrates buttons
// that dispatch to a custom command registered by this same plugin, and
// buttons that trigger a web search.
type ButtonTest struct{}

func NewButtonTest() *ButtonTest { return &ButtonTest{} }

func (*ButtonTest) Name() string { return "ButtonTest" }
func (*ButtonTest) Init() error  { return nil }

func (*ButtonTest) Filters() []dispatch.FilterSpec { return nil }

func (*ButtonTest) Rules() []dispatch.SpeechRule {
	return []dispatch.SpeechRule{
		{
			Matcher: dispatch.Matches("Test custom buttons"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				utterance := objects.Utterance("Please press a button", "", false, "")
				buttons := []objects.Object{
					objects.CustomCommandButton("Button 1", "Command 1"),
					objects.CustomCommandButton("Button 2", "Command 2"),
					objects.CustomCommandButton("Button 3", "Command 3"),
				}
				views := append([]objects.Object{utterance}, buttons...)
				_ = inj.MakeView(views)
				_ = inj.CompleteRequest(true)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
		{
			Matcher: dispatch.Regex("(Create|Make) a Button"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				utterance := objects.Utterance("Look! I made buttons", "Aren't they cool?", false, "")
				button1 := objects.WebSearchButton("Search for Siri", "siri")
				button2 := objects.WebSearchButton("Search for Python", "python")
				_ = inj.MakeView([]objects.Object{utterance, button1, button2})
				_ = inj.CompleteRequest(true)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
	}
}

// CustomCommands maps the three buttons laid out in Rules above to their
// reply handlers, exercising the customCommandMap / customCommand filter
// path: pressing a button resends a StartRequest carrying the command name
// as its utterance, and this plugin's built-in filter routes it here. The
// handler's return value mirrors BasePlugin.customCommand: the callback's
// own completeRequest() already settled the turn locally, so the filter
// itself reports ignore (the original StartRequest is left unmolested)
// rather than dropping it.
func (*ButtonTest) CustomCommands() map[string]dispatch.CustomCommandFn {
	reply := func(text string) dispatch.CustomCommandFn {
		return func(inj *dispatch.Injector, _ objects.Object) dispatch.FilterResult {
			_ = inj.Say(text, "", false)
			_ = inj.CompleteRequest(true)
			return dispatch.FilterResult{Action: dispatch.Ignore}
		}
	}
	return map[string]dispatch.CustomCommandFn{
		"Command 1": reply("You pressed the first button!"),
		"Command 2": reply("You pressed the second button!"),
		"Command 3": reply("You pressed the third button!"),
	}
}
