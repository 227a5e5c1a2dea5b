//go:build windows

package platform

import (
	"unsafe"

	"github.com/pkg/errors"
)

// sendInputInjector moves the pointer with SendInput in absolute
// virtual-desktop coordinates.
type sendInputInjector struct{}

func (sendInputInjector) CursorPosition() (Point, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return Point{}, errors.Wrap(err, "GetCursorPos")
	}
	return Point{X: int(p.X), Y: int(p.Y)}, nil
}

func (sendInputInjector) Inject(batch Batch) error {
	if len(batch) == 0 {
		return nil
	}

	left := getSystemMetric(smXVirtualScreen)
	top := getSystemMetric(smYVirtualScreen)
	width := getSystemMetric(smCXVirtualScreen)
	height := getSystemMetric(smCYVirtualScreen)
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid virtual screen %dx%d", width, height)
	}

	inputs := make([]input, len(batch))
	for i, p := range batch {
		inputs[i] = input{
			Type: inputMouse,
			Mi: mouseInput{
				Dx:          NormalizeAbsolute(p.X, left, width),
				Dy:          NormalizeAbsolute(p.Y, top, height),
				DwFlags:     mouseeventfMove | mouseeventfAbsolute | mouseeventfVirtual,
				DwExtraInfo: injectionSignature,
			},
		}
	}

	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return errors.Wrapf(err, "SendInput inserted %d of %d events", n, len(inputs))
	}
	return nil
}
