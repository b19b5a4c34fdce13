// Package monitoring holds the process-wide diagnostic logger used for
// non-fatal events: ignored updates, release failures and dropped frames.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be replaced with SetLogger to redirect or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture redirects Logf into the returned slice until restore is called.
// Intended for tests that assert on warnings.
func Capture() (lines *[]string, restore func()) {
	original := Logf
	var got []string
	Logf = func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	}
	return &got, func() { Logf = original }
}
