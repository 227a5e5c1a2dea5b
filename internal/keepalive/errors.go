package keepalive

import "errors"

var (
	// ErrHookInstallation means real user activity cannot be observed. The
	// keeper keeps running and deters on every interval regardless.
	ErrHookInstallation = errors.New("activity observer installation failed")

	// ErrSyntheticInput means a deterrence burst could not be injected.
	ErrSyntheticInput = errors.New("synthetic input failed")

	// ErrSettingsQuery means the idle-lock configuration could not be read.
	ErrSettingsQuery = errors.New("idle settings query failed")

	// ErrRunning is returned when starting a keeper that is already running.
	ErrRunning = errors.New("keeper already running")

	// ErrShutdown is returned when starting a keeper after Shutdown.
	ErrShutdown = errors.New("keeper shut down")
)
