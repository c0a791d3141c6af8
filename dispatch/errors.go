package dispatch

import "fmt"

// FilterError wraps a panic recovered while running a plugin's filter or
// speech rule. Per A.7 this is never session-fatal: the offending
// call is treated as Ignore/NotClaimed and the pipeline moves on to the
// next plugin.
type FilterError struct {
	Plugin string
	Panic  any
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("dispatch: plugin %q panicked: %v", e.Plugin, e.Panic)
}

func (e *FilterError) Fatal() bool { return false }
