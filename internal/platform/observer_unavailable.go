package platform

import "github.com/pkg/errors"

// unavailableObserver always fails to install, leaving the keeper in blind mode.
type unavailableObserver struct {
	reason string
}

func (o unavailableObserver) Install(func()) error {
	return errors.New(o.reason)
}

func (unavailableObserver) Uninstall() error { return nil }
