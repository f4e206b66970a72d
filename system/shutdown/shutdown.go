package shutdown

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/datadog"
)

// ExitFunc ends the process; tests replace it.
var ExitFunc = os.Exit

var (
	hooksMutex sync.Mutex
	hooks      []func()
)

// OnExit registers fn to run before the process exits. Deferred calls never
// run past os.Exit, so resources are released here instead. Hooks run newest
// first, and each runs once.
func OnExit(fn func()) {
	hooksMutex.Lock()
	hooks = append(hooks, fn)
	hooksMutex.Unlock()
}

func runHooks() {
	hooksMutex.Lock()
	pending := hooks
	hooks = nil
	hooksMutex.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}

func Shutdown() {
	runHooks()
	datadog.Flush()
	log.Info().Msg("Light meter stopped")
	ExitFunc(0)
}

// ShutdownWithError exits non-zero so systemd restarts the unit.
func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	runHooks()
	datadog.Flush()
	ExitFunc(1)
}
