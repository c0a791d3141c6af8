package builtin

import (
	"github.com/kelsonai/voxrelay/dispatch"
	"github.com/kelsonai/voxrelay/objects"
)

// ResetPlugin resets the session context whenever an object reporting that
// a request is done one way or another passes in either direction, the Go
// counterpart of
// resetPlugin.py's single @CancelRequest @CancelSpeech @ClearContext
// @CommandFailed filter.
type ResetPlugin struct{}

func NewResetPlugin() *ResetPlugin { return &ResetPlugin{} }

func (*ResetPlugin) Name() string { return "Reset-Plugin" }
func (*ResetPlugin) Init() error  { return nil }
func (*ResetPlugin) CustomCommands() map[string]dispatch.CustomCommandFn { return nil }

func (*ResetPlugin) Filters() []dispatch.FilterSpec {
	return []dispatch.FilterSpec{
		{
			Classes: []string{
				objects.ClassCancelRequest,
				objects.ClassCancelSpeech,
				objects.ClassClearContext,
				objects.ClassCommandFailed,
			},
			Fn: func(inj *dispatch.Injector, obj objects.Object, _ dispatch.Direction) dispatch.FilterResult {
				inj.ResetContext()
				return dispatch.FilterResult{Action: dispatch.Ignore}
			},
		},
	}
}

func (*ResetPlugin) Rules() []dispatch.SpeechRule { return nil }
