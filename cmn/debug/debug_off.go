//go:build !debug

// Package debug provides assertions that are compiled out unless the
// "debug" build tag is set. voxrelay calls these at the frame/session/
// dispatch boundaries where a violated invariant should abort a build
// running under test but must never add overhead to a production proxy.
package debug

import "sync"

func ON() bool { return false }

func Func(_ func()) {}

func Assert(_ bool, _ ...any)            {}
func AssertFunc(_ func() bool, _ ...any) {}
func AssertNoErr(_ error)                {}
func Assertf(_ bool, _ string, _ ...any) {}

func AssertMutexLocked(_ *sync.Mutex)     {}
func AssertRWMutexLocked(_ *sync.RWMutex) {}
