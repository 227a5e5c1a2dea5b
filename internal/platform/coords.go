package platform

// NormalizeAbsolute maps pixel v on an axis starting at origin and spanning
// extent pixels into the 0..65535 absolute range, rounding up so the
// round trip back to pixels lands on the same pixel.
func NormalizeAbsolute(v, origin, extent int) int32 {
	if extent <= 0 {
		return 0
	}
	off := v - origin
	if off < 0 {
		off = 0
	}
	if off >= extent {
		off = extent - 1
	}
	return int32((off*AbsoluteRange + extent - 1) / extent)
}

// DenormalizeAbsolute is the inverse of NormalizeAbsolute.
func DenormalizeAbsolute(n int32, origin, extent int) int {
	return origin + int(n)*extent/AbsoluteRange
}
