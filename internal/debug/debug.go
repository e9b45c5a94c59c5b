package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	enabled bool
	noColor bool
	out     io.Writer = os.Stderr
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// SetDebug enables or disables debug mode
func SetDebug(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = enable
}

// IsEnabled returns whether debug mode is enabled
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetNoColor enables or disables colored output
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disable
}

// SetOutput redirects debug output. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

func emit(line string) {
	mu.RLock()
	useColor := !noColor
	w := out
	mu.RUnlock()

	timestamp := time.Now().Format("15:04:05.000")
	if useColor {
		fmt.Fprintf(w, "%s[DEBUG]%s %s%s%s %s\n", colorCyan, colorReset, colorGray, timestamp, colorReset, line)
	} else {
		fmt.Fprintf(w, "[DEBUG] %s %s\n", timestamp, line)
	}
}

// Debug prints a debug message with timestamp
func Debug(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	emit(fmt.Sprintf(format, args...))
}

// Logger tags every message with a component name, e.g. "[stack]".
type Logger struct {
	component string
}

// For returns a Logger for the named component.
func For(component string) Logger {
	return Logger{component: component}
}

// Debugf prints a tagged debug message.
func (l Logger) Debugf(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	emit(fmt.Sprintf("[%s] %s", l.component, fmt.Sprintf(format, args...)))
}

// DebugSection prints a section header for debug output
func DebugSection(section string) {
	if !IsEnabled() {
		return
	}
	emit(fmt.Sprintf("=== %s ===", section))
}

// DebugValue prints key=value style debug info
func DebugValue(key string, value interface{}) {
	if !IsEnabled() {
		return
	}
	emit(fmt.Sprintf("%s = %v", key, value))
}

// DebugJSON prints structured data as JSON for debugging
func DebugJSON(key string, v interface{}) {
	if !IsEnabled() {
		return
	}

	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		Debug("Failed to marshal %s to JSON: %v", key, err)
		return
	}
	emit(fmt.Sprintf("%s:\n%s", key, string(jsonBytes)))
}
