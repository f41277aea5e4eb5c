package led

// Wheel maps pos in [0,255] onto a red -> green -> blue -> red hue cycle.
// Anything outside that range is black.
func Wheel(pos int) Color {
	switch {
	case pos < 0 || pos > 255:
		return Black
	case pos < 85:
		return Color{R: uint8(255 - pos*3), G: uint8(pos * 3)}
	case pos < 170:
		pos -= 85
		return Color{G: uint8(255 - pos*3), B: uint8(pos * 3)}
	default:
		pos -= 170
		return Color{R: uint8(pos * 3), B: uint8(255 - pos*3)}
	}
}

// RainbowIndex is the wheel position of pixel i in frame j of a rainbow cycle.
func RainbowIndex(i, j int) int {
	return (i*256/NumPixels + j) & 255
}
