package sock

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var packageLogger atomic.Pointer[zap.Logger]

func init() {
	packageLogger.Store(zap.NewNop())
}

// SetLogger replaces the logger used by calls without WithLogger.
// Entries are named "sock"; nil restores the silent default.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		packageLogger.Store(zap.NewNop())
		return
	}
	packageLogger.Store(logger.Named("sock"))
}

func currentLogger() *zap.Logger {
	return packageLogger.Load()
}
