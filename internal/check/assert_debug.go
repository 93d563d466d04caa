//go:build debug

package check

import "fmt"

// Assert panics if cond is false. Compiled in only under the debug tag.
func Assert(cond bool, msg string) {
	if !cond {
		panic("assertion failed: " + msg)
	}
}

// Assertf panics if cond is false with a formatted message. Compiled in
// only under the debug tag.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("assertion failed: " + fmt.Sprintf(format, args...))
	}
}
