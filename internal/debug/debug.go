package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/loctree/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	debugMutex  sync.Mutex
	debugOutput io.Writer
	initOnce    sync.Once
)

// enabled reports whether debug logging is on, from either the build flag
// or the LOCTREE_DEBUG environment variable.
func enabled() bool {
	initOnce.Do(func() {
		if debugOutput == nil && (EnableDebug == "true" || os.Getenv("LOCTREE_DEBUG") == "1") {
			debugOutput = os.Stderr
		}
	})
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput != nil
}

// SetOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetOutput(w io.Writer) {
	initOnce.Do(func() {})
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// Logf writes a timestamped debug line if debug output is enabled.
func Logf(format string, args ...interface{}) {
	if !enabled() {
		return
	}
	debugMutex.Lock()
	defer debugMutex.Unlock()
	if debugOutput == nil {
		return
	}
	fmt.Fprintf(debugOutput, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}
