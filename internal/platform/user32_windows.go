//go:build windows

package platform

import "golang.org/x/sys/windows"

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW    = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx       = user32.NewProc("CallNextHookEx")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procPeekMessageW         = user32.NewProc("PeekMessageW")
	procTranslateMessage     = user32.NewProc("TranslateMessage")
	procDispatchMessageW     = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW   = user32.NewProc("PostThreadMessageW")
	procSendInput            = user32.NewProc("SendInput")
	procGetCursorPos         = user32.NewProc("GetCursorPos")
	procGetSystemMetrics     = user32.NewProc("GetSystemMetrics")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
	procGetModuleHandleW     = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	hcAction = 0

	wmQuit       = 0x0012
	wmUser       = 0x0400
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
	wmMouseMove  = 0x0200

	pmNoRemove = 0x0000

	llkhfInjected = 0x00000010
	llmhfInjected = 0x00000001

	inputMouse          = 0
	mouseeventfMove     = 0x0001
	mouseeventfAbsolute = 0x8000
	mouseeventfVirtual  = 0x4000

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	spiGetScreenSaveTimeout = 14
	spiGetScreenSaveActive  = 16
)

// injectionSignature tags our own SendInput events so the hook can skip them.
const injectionSignature uintptr = 0x4E534C50

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    windows.HWND
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// input mirrors INPUT; the mouse member is the largest arm of the union.
type input struct {
	Type uint32
	Mi   mouseInput
}

func getSystemMetric(index uintptr) int {
	r, _, _ := procGetSystemMetrics.Call(index)
	return int(int32(r))
}
