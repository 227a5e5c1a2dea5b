//go:build windows

package integration

import (
	"os"
	"syscall"
)

func exitSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
	}
}

// Windows cannot deliver SIGINT/SIGTERM to another process.
const signalsSupported = false
