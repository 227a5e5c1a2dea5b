//go:build windows

package platform

import "golang.org/x/sys/windows"

// New returns the Windows platform: low-level hooks, SendInput and the
// screensaver settings in the registry.
func New(opts Options) (*Platform, error) {
	return &Platform{
		Name:     "windows",
		Provider: screensaverProvider{},
		Observer: newHookObserver(),
		Injector: sendInputInjector{},
		Notifier: newRegistryNotifier(),
	}, nil
}

// Alert shows a modal message box.
func Alert(title, message string) {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return
	}
	_, _ = windows.MessageBox(0, m, t, windows.MB_OK|windows.MB_ICONWARNING)
}
