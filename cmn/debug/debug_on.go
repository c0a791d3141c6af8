//go:build debug

// Package debug provides assertions that are compiled out unless the
// "debug" build tag is set. voxrelay calls these at the frame/session/
// dispatch boundaries where a violated invariant should abort a build
// running under test but must never add overhead to a production proxy.
package debug

import (
	"fmt"
	"sync"
)

func ON() bool { return true }

func Func(f func()) { f() }

func Assert(cond bool, args ...any) {
	if !cond {
		panic(fmt.Sprintln(append([]any{"assertion failed:"}, args...)...))
	}
}

func AssertFunc(f func() bool, args ...any) { Assert(f(), args...) }

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// AssertMutexLocked and AssertRWMutexLocked are best-effort: sync.Mutex and
// sync.RWMutex expose no public "is locked" query, so these only catch the
// case where the lock is provably free (TryLock succeeds).
func AssertMutexLocked(mu *sync.Mutex) {
	if mu.TryLock() {
		mu.Unlock()
		panic("mutex not locked")
	}
}

func AssertRWMutexLocked(mu *sync.RWMutex) {
	if mu.TryLock() {
		mu.Unlock()
		panic("rwmutex not locked")
	}
}
