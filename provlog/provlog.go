// Package provlog contains a leveled logger for provisioning runs. Messages
// go to stderr so that command output on stdout stays machine readable.
package provlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level identifies a log level by priority. Messages below the current level
// are dropped.
type Level int

// The available log levels, lowest priority first
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var (
	mu           sync.Mutex
	currentLevel = LevelInfo
	stderr       io.Writer = os.Stderr
	stdout       io.Writer = os.Stdout
)

// SetLogLevel sets the minimum level that will be logged
func SetLogLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// SetWriters overrides the destination writers. Used by tests to capture
// log output.
func SetWriters(out, err io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = out
	stderr = err
}

// Outputf prints directly to stdout for chaining commands
func Outputf(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(stdout, format, a...)
}

// Debugf logs at the debug level
func Debugf(format string, a ...interface{}) {
	logAtLevel(LevelDebug, "[DEBUG] ", format, a...)
}

// Infof logs at the info level
func Infof(format string, a ...interface{}) {
	logAtLevel(LevelInfo, "", format, a...)
}

// Warningf logs at the warning level
func Warningf(format string, a ...interface{}) {
	logAtLevel(LevelWarning, "[WARNING] ", format, a...)
}

// Errorf logs at the error level
func Errorf(format string, a ...interface{}) {
	logAtLevel(LevelError, "[ERROR] ", format, a...)
}

// Fatalf logs at the error level and exits the process
func Fatalf(format string, a ...interface{}) {
	logAtLevel(LevelError, "[FATAL] ", format, a...)
	os.Exit(1)
}

func logAtLevel(level Level, prefix, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if currentLevel > level {
		return
	}

	fmt.Fprintf(stderr, prefix+format+"\n", a...)
}
