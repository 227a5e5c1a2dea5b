//go:build !darwin && !windows && !linux

package platform

import (
	"os"

	"github.com/pkg/errors"
)

// New reports that the platform is unsupported.
func New(opts Options) (*Platform, error) {
	return nil, errors.New("unsupported platform")
}

// Alert writes the message to stderr.
func Alert(title, message string) {
	_, _ = os.Stderr.WriteString(title + ": " + message + "\n")
}
