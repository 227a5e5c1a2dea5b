//go:build windows

package platform

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const hookShutdownTimeout = 2 * time.Second

var (
	// The OS calls these trampolines; they forward to the installed observer.
	activeHook   atomic.Pointer[hookObserver]
	keyboardProc = windows.NewCallback(keyboardHook)
	mouseProc    = windows.NewCallback(mouseHook)
)

// hookObserver taps keyboard and mouse input with low-level hooks. The hooks
// live on a dedicated OS thread that pumps messages until Uninstall.
type hookObserver struct {
	mu         sync.Mutex
	onActivity func()
	threadID   uint32
	done       chan struct{}
}

func newHookObserver() *hookObserver {
	return &hookObserver{}
}

func (h *hookObserver) Install(onActivity func()) error {
	if onActivity == nil {
		return errors.New("activity callback is nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return errors.New("hooks already installed")
	}
	if !activeHook.CompareAndSwap(nil, h) {
		return errors.New("another observer owns the input hooks")
	}
	h.onActivity = onActivity

	ready := make(chan error, 1)
	done := make(chan struct{})
	go h.pump(ready, done)

	if err := <-ready; err != nil {
		<-done
		activeHook.CompareAndSwap(h, nil)
		return err
	}
	h.done = done
	return nil
}

// pump installs both hooks and runs the message loop the OS needs to deliver them.
func (h *hookObserver) pump(ready chan<- error, done chan<- struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var m msg
	// Force creation of the thread message queue before anyone posts to it.
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, wmUser, wmUser, pmNoRemove)
	h.threadID = windows.GetCurrentThreadId()

	module, _, _ := procGetModuleHandleW.Call(0)

	kb, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyboardProc, module, 0)
	if kb == 0 {
		ready <- errors.Wrap(err, "SetWindowsHookEx(WH_KEYBOARD_LL)")
		return
	}
	defer procUnhookWindowsHookEx.Call(kb)

	ms, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseProc, module, 0)
	if ms == 0 {
		ready <- errors.Wrap(err, "SetWindowsHookEx(WH_MOUSE_LL)")
		return
	}
	defer procUnhookWindowsHookEx.Call(ms)

	ready <- nil
	log.Debug("platform: input hooks installed")

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is an error
		if int32(r) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
	log.Debug("platform: input hooks removed")
}

func (h *hookObserver) Uninstall() error {
	h.mu.Lock()
	done := h.done
	h.done = nil
	h.mu.Unlock()

	if done == nil {
		return nil
	}
	defer activeHook.CompareAndSwap(h, nil)

	r, _, err := procPostThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0)
	if r == 0 {
		return errors.Wrap(err, "PostThreadMessage(WM_QUIT)")
	}

	select {
	case <-done:
		return nil
	case <-time.After(hookShutdownTimeout):
		return errors.New("timed out waiting for hook thread")
	}
}

func (h *hookObserver) signal() {
	if fn := h.onActivity; fn != nil {
		fn()
	}
}

func selfInjected(injected bool, extra uintptr) bool {
	return injected && extra == injectionSignature
}

func keyboardHook(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= hcAction && (wParam == wmKeyDown || wParam == wmSysKeyDown) {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if !selfInjected(kb.Flags&llkhfInjected != 0, kb.DwExtraInfo) {
			if h := activeHook.Load(); h != nil {
				h.signal()
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func mouseHook(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= hcAction && wParam == wmMouseMove {
		ms := (*msllHookStruct)(unsafe.Pointer(lParam))
		if !selfInjected(ms.Flags&llmhfInjected != 0, ms.DwExtraInfo) {
			if h := activeHook.Load(); h != nil {
				h.signal()
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}
