package led

import "github.com/rs/zerolog"

// Color is an 8-bit per channel RGB value. No alpha.
type Color struct {
	R, G, B uint8
}

var (
	Black  = Color{0, 0, 0}
	Red    = Color{255, 0, 0}
	Yellow = Color{255, 150, 0}
	Green  = Color{0, 255, 0}
	Cyan   = Color{0, 255, 255}
	Blue   = Color{0, 0, 255}
	Purple = Color{180, 0, 255}
)

var palette = map[string]Color{
	"red":    Red,
	"yellow": Yellow,
	"green":  Green,
	"cyan":   Cyan,
	"blue":   Blue,
	"purple": Purple,
}

// RGBA implements image/color.Color so a Color can be handed to image based drawers.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Scale multiplies every channel by f, clamped to [0,1].
func (c Color) Scale(f float64) Color {
	if f >= 1 {
		return c
	}
	if f <= 0 {
		return Black
	}
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Bytes returns the channels in R, G, B order.
func (c Color) Bytes() [3]byte {
	return [3]byte{c.R, c.G, c.B}
}

// ColorByName looks a palette entry up. Names match exactly: "Red" is not
// a palette name.
func ColorByName(name string) (Color, bool) {
	c, ok := palette[name]
	return c, ok
}

// ResolveColor returns the palette color for name, falling back to Red with a
// single warning when the name is not part of the palette.
func ResolveColor(name string, logger zerolog.Logger) Color {
	if c, ok := ColorByName(name); ok {
		return c
	}
	logger.Warn().Str("color", name).Msg("invalid color, defaulting to red")
	return Red
}

// PaletteNames lists the recognised color names.
func PaletteNames() []string {
	return []string{"red", "yellow", "green", "cyan", "blue", "purple"}
}
