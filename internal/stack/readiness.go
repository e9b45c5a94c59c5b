package stack

import (
	"regexp"
	"strings"
)

// Markers printed by the MySQL/MariaDB images. While init scripts run the
// entrypoint starts a temporary server that also reports readiness, so
// ready lines between the begin and done markers are not the real server.
// Older entrypoints print MySQLInitBeginMarker; current ones announce
// MySQLInitFilesMarker and MySQLTempServerMarker instead.
const (
	MySQLInitBeginMarker  = "MySQL init process in progress"
	MySQLInitFilesMarker  = "Initializing database files"
	MySQLTempServerMarker = "Temporary server started"
	MySQLInitDoneMarker   = "MySQL init process done"
	MySQLReadyMarker      = "ready for connections"
)

// mysqlTempPort matches the port report of the temporary server, which runs
// with --skip-networking.
var mysqlTempPort = regexp.MustCompile(`\bport: 0\b`)

// WatchContext is the scratch state handed to a ProcessData function for each
// chunk of log output. It is only touched from the watcher's loop goroutine.
type WatchContext struct {
	// InitBegan is set once the initialization-begun marker was seen.
	InitBegan bool
	// ReadyFound is set once the service reported readiness.
	ReadyFound bool

	marks map[string]bool
	ended bool
}

// End signals that bootstrap is complete.
func (w *WatchContext) End() {
	w.ended = true
}

// Ended reports whether End was called.
func (w *WatchContext) Ended() bool {
	return w.ended
}

// Mark records a named flag for ProcessData functions that track more than
// the begin and ready states.
func (w *WatchContext) Mark(name string) {
	if w.marks == nil {
		w.marks = make(map[string]bool)
	}
	w.marks[name] = true
}

// Marked reports whether Mark was called with name.
func (w *WatchContext) Marked(name string) bool {
	return w.marks[name]
}

// ProcessData inspects a chunk of log output and updates w.
type ProcessData func(w *WatchContext, chunk string)

// MarkerReadiness returns a ProcessData that records begin when it sees
// beginMarker, sets ReadyFound on readyMarker and ends once readyMarker
// appears after beginMarker.
func MarkerReadiness(beginMarker, readyMarker string) ProcessData {
	return func(w *WatchContext, chunk string) {
		rest := chunk
		if i := strings.Index(chunk, beginMarker); i >= 0 {
			w.InitBegan = true
			rest = chunk[i+len(beginMarker):]
		}
		if strings.Contains(chunk, readyMarker) {
			w.ReadyFound = true
		}
		if w.InitBegan && strings.Contains(rest, readyMarker) {
			w.End()
		}
	}
}

const mysqlInitDone = "mysql-init-done"

// MySQLReadiness ends once the server is ready after running its init
// scripts. A ready line with no begin marker sets ReadyFound only, which
// lets the grace checks finish a watch on an already initialized volume.
// Ready lines of the temporary server are never counted.
func MySQLReadiness(w *WatchContext, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		switch {
		case strings.Contains(line, MySQLInitBeginMarker),
			strings.Contains(line, MySQLInitFilesMarker),
			strings.Contains(line, MySQLTempServerMarker):
			w.InitBegan = true
		case strings.Contains(line, MySQLInitDoneMarker):
			w.InitBegan = true
			w.Mark(mysqlInitDone)
		case strings.Contains(line, MySQLReadyMarker):
			if mysqlTempPort.MatchString(line) || (w.InitBegan && !w.Marked(mysqlInitDone)) {
				log.Debugf("ignoring temporary server: %s", line)
				continue
			}
			w.ReadyFound = true
			if w.InitBegan {
				w.End()
			}
		}
	}
}
