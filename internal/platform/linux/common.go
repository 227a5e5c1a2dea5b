//go:build linux

package linux

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stigoleg/nosleep/internal/util"
)

// commandTimeout bounds every helper process we spawn.
const commandTimeout = 3 * time.Second

var log = logrus.WithField("component", "linux")

// Runner executes an external command and returns its combined output.
type Runner func(name string, args ...string) (string, error)

// hasCommand checks if a command is available in the system PATH.
func hasCommand(name string) bool {
	return util.HasCommand(name)
}

// runVerbose executes a command and returns the combined output (stdout+stderr) and any error.
func runVerbose(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return strings.TrimSpace(buf.String()), err
}
