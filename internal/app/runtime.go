package app

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "FLEET_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// SkipStartup logs and reports true when component must not start because
// the process runs under tests.
func SkipStartup(component string) bool {
	if !InTestMode() {
		return false
	}
	slog.Default().Info("test mode detected, skipping startup", slog.String("component", component))
	return true
}
