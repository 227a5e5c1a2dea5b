//go:build windows

package platform

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const desktopKeyPath = `Control Panel\Desktop`

// screensaverProvider reads the screensaver timeout and whether a
// screensaver is configured at all.
type screensaverProvider struct{}

func (screensaverProvider) IdleTimeoutSeconds() (int, error) {
	var secs uint32
	r, _, err := procSystemParametersInfo.Call(spiGetScreenSaveTimeout, 0, uintptr(unsafe.Pointer(&secs)), 0)
	if r == 0 {
		return 0, errors.Wrap(err, "SystemParametersInfo(SPI_GETSCREENSAVETIMEOUT)")
	}
	return int(secs), nil
}

// IdleLockEnabled is true when a screensaver executable is selected and the
// screensaver is active. "(None)" in the control panel clears SCRNSAVE.EXE.
func (screensaverProvider) IdleLockEnabled() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, desktopKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false, errors.Wrapf(err, "open HKCU\\%s", desktopKeyPath)
	}
	defer key.Close()

	exe, _, err := key.GetStringValue("SCRNSAVE.EXE")
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return false, errors.Wrap(err, "read SCRNSAVE.EXE")
	}
	if exe == "" {
		return false, nil
	}

	var active int32
	r, _, err := procSystemParametersInfo.Call(spiGetScreenSaveActive, 0, uintptr(unsafe.Pointer(&active)), 0)
	if r == 0 {
		return false, errors.Wrap(err, "SystemParametersInfo(SPI_GETSCREENSAVEACTIVE)")
	}
	return active != 0, nil
}

// registryNotifier signals when values under HKCU\Control Panel\Desktop change.
type registryNotifier struct {
	mu   sync.Mutex
	stop windows.Handle
	done chan struct{}
}

func newRegistryNotifier() *registryNotifier {
	return &registryNotifier{}
}

func (n *registryNotifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done != nil {
		return nil, errors.New("notifier already subscribed")
	}

	key, err := registry.OpenKey(registry.CURRENT_USER, desktopKeyPath, registry.NOTIFY)
	if err != nil {
		return nil, errors.Wrapf(err, "open HKCU\\%s", desktopKeyPath)
	}
	changed, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		key.Close()
		return nil, errors.Wrap(err, "CreateEvent")
	}
	stop, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		key.Close()
		windows.CloseHandle(changed)
		return nil, errors.Wrap(err, "CreateEvent")
	}

	n.stop = stop
	n.done = make(chan struct{})
	out := make(chan struct{}, 1)

	go func(done chan struct{}) {
		defer close(done)
		defer close(out)
		defer key.Close()
		defer windows.CloseHandle(changed)

		// Registrations are owned by the calling thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		filter := uint32(windows.REG_NOTIFY_CHANGE_LAST_SET | windows.REG_NOTIFY_CHANGE_NAME)
		for {
			if err := windows.RegNotifyChangeKeyValue(windows.Handle(key), false, filter, changed, true); err != nil {
				log.Warnf("platform: RegNotifyChangeKeyValue failed: %v", err)
				return
			}
			ev, err := windows.WaitForMultipleObjects([]windows.Handle{changed, stop}, false, windows.INFINITE)
			if err != nil {
				log.Warnf("platform: waiting for registry change failed: %v", err)
				return
			}
			if ev != windows.WAIT_OBJECT_0 {
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}(n.done)

	go func(done chan struct{}) {
		select {
		case <-ctx.Done():
			windows.SetEvent(stop)
		case <-done:
		}
	}(n.done)

	return out, nil
}

func (n *registryNotifier) Close() error {
	n.mu.Lock()
	stop, done := n.stop, n.done
	n.stop, n.done = 0, nil
	n.mu.Unlock()

	if done == nil {
		return nil
	}
	windows.SetEvent(stop)
	<-done
	return windows.CloseHandle(stop)
}
