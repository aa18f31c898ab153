package sched

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the scheduler's logger, a no-op until SetLogger installs
// a real one. It is a package-level singleton rather than a field threaded through every
// call, since logging here is purely observational (§5) and never
// affects scheduling decisions.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs an embedder-supplied logger, e.g. for attaching wait/
// notify/trap events to a host's own structured log.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger = l
}
