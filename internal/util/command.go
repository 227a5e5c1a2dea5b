package util

import "os/exec"

// HasCommand reports whether name resolves on PATH. The Linux provider uses
// it to decide between gsettings and the X11 screensaver query.
func HasCommand(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
