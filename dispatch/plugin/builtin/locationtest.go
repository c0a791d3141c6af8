package builtin

import (
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/objects"
)

// LocationTest is the Go counterpart of locationTest.py: demonstrates
// pinning named locations on a map and showing driving directions between
// two locations identified by latitude/longitude.
type LocationTest struct{}

func NewLocationTest() *LocationTest { return &LocationTest{} }

func (*LocationTest) Name() string                                     { return "LocationTest" }
func (*LocationTest) Init() error                                      { return nil }
func (*LocationTest) Filters() []dispatch.FilterSpec                   { return nil }
func (*LocationTest) CustomCommands() map[string]dispatch.CustomCommandFn { return nil }

func (*LocationTest) Rules() []dispatch.SpeechRule {
	return []dispatch.SpeechRule{
		{
			Matcher: dispatch.Matches("Create map location"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				appleHQ := objects.Location("Apple HQ", "1 Infinite Loop", "Cupertino", "CA", "US", "95014", 0, 0)
				orlando := objects.Location("", "", "Olando", "FL", "US", "", 0, 0)
				item1 := objects.MapItem("Apple HQ", appleHQ)
				item2 := objects.MapItem("Orlando", orlando)
				snippet := objects.MapItemSnippet(false, []objects.Object{item1, item2})
				_ = inj.MakeView([]objects.Object{snippet})
				_ = inj.CompleteRequest(true)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
		{
			Matcher: dispatch.Matches("Create directions"),
			Fn: func(inj *dispatch.Injector, _ string) dispatch.RuleResult {
				appleHQ := objects.MapItem("Apple HQ", objects.Location("", "", "", "", "", "", 37.331414, -122.030566))
				googleHQ := objects.MapItem("Google HQ", objects.Location("", "1600 Amphitheatre Parkway", "Mountain View", "CA", "US", "94043", 37.422131, -122.083911))
				// Showing directions completes the request itself.
				_ = inj.ShowDrivingDirections(appleHQ, googleHQ, nil)
				return dispatch.RuleResult{Action: dispatch.Claimed}
			},
		},
	}
}
