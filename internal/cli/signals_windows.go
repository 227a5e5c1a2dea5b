//go:build windows

package cli

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
