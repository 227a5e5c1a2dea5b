package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync"
)

const iconSize = 32

var (
	iconOnce  sync.Once
	iconBytes []byte
)

// icon returns the tray icon: a PNG, wrapped in an ICO container on Windows.
func icon() []byte {
	iconOnce.Do(func() {
		data := renderPNG()
		if runtime.GOOS == "windows" {
			data = wrapICO(data, iconSize)
		}
		iconBytes = data
	})
	return iconBytes
}

// renderPNG draws a filled circle with an open eye slit.
func renderPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	fill := color.NRGBA{R: 0x7D, G: 0x56, B: 0xF4, A: 0xFF}
	slit := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	c := float64(iconSize-1) / 2
	r2 := c * c
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy > r2 {
				continue
			}
			if dy > -2 && dy < 2 && dx > -c/2 && dx < c/2 {
				img.Set(x, y, slit)
				continue
			}
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// wrapICO embeds a PNG image in a single-entry ICO file.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0)
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}
