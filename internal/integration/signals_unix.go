//go:build !windows

package integration

import (
	"os"
	"syscall"
)

func exitSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

const signalsSupported = true
