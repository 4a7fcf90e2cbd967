// Package logging holds the error and audit sinks shared by the
// maintenance tools. Configure wires them from the loaded
// configuration; until then errors go to stderr and audit lines are
// dropped.
package logging

import (
	"io"
	"os"
	"sync"
)

type manager struct {
	errorLog *RotatingFile
	auditLog *RotatingFile
}

var (
	globalMu sync.RWMutex
	global   = manager{}
)

func Configure(errorPath, auditPath string, maxSize int64) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global.errorLog = NewRotatingFile(errorPath, maxSize)
	global.auditLog = NewRotatingFile(auditPath, maxSize)
}

// ErrorWriter returns the destination for error output, suitable for
// log.SetOutput.
func ErrorWriter() io.Writer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global.errorLog != nil && global.errorLog.Enabled() {
		return global.errorLog
	}
	return os.Stderr
}

// Audit appends one line to the audit log.
func Audit(line string) {
	globalMu.RLock()
	logger := global.auditLog
	globalMu.RUnlock()
	if logger != nil {
		_ = logger.WriteLine(line)
	}
}
