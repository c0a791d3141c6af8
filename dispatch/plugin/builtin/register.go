package builtin

import "github.com/kelsonai/voxrelay/dispatch"

func init() {
	dispatch.Register("testPlugin", func() dispatch.Plugin { return NewTestPlugin() })
	dispatch.Register("resetPlugin", func() dispatch.Plugin { return NewResetPlugin() })
	dispatch.Register("buttonTest", func() dispatch.Plugin { return NewButtonTest() })
	dispatch.Register("locationTest", func() dispatch.Plugin { return NewLocationTest() })
}
