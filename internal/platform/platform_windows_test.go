//go:build windows

package platform

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestInputLayoutMatchesWin32(t *testing.T) {
	want := uintptr(28)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		want = 40
	}
	assert.Equal(t, want, unsafe.Sizeof(input{}))
}

func TestSelfInjected(t *testing.T) {
	assert.True(t, selfInjected(true, injectionSignature))
	assert.False(t, selfInjected(true, 0), "injected by someone else")
	assert.False(t, selfInjected(false, injectionSignature), "hardware input never carries the flag")
	assert.False(t, selfInjected(false, 0))
}

func TestScreensaverProviderReads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	p := screensaverProvider{}
	secs, err := p.IdleTimeoutSeconds()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 0)

	_, err = p.IdleLockEnabled()
	assert.NoError(t, err)
}
