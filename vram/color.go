package vram

import "image/color"

const maxChannel = 31

// Color is a 15-bit console color with a mask, or semi-transparency, bit.
// It implements the color.Color interface.
type Color struct {
	R, G, B uint8
	Mask    bool
}

// NewColor returns a Color with each channel clamped to 0-31
func NewColor(r, g, b int, mask bool) Color {
	return Color{clamp(r), clamp(g), clamp(b), mask}
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > maxChannel:
		return maxChannel
	}
	return uint8(v)
}

// Pack returns the color packed as MBBBBBGGGGGRRRRR
func (c Color) Pack() uint16 {
	v := uint16(clamp(int(c.B)))<<10 | uint16(clamp(int(c.G)))<<5 | uint16(clamp(int(c.R)))
	if c.Mask {
		v |= 1 << 15
	}
	return v
}

// Unpack is the inverse of Pack
func Unpack(v uint16) Color {
	return Color{
		R:    uint8(v) & maxChannel,
		G:    uint8(v>>5) & maxChannel,
		B:    uint8(v>>10) & maxChannel,
		Mask: v&(1<<15) != 0,
	}
}

// Transparent reports whether the console treats the color as fully
// transparent, which is the all zero word
func (c Color) Transparent() bool {
	return c.Pack() == 0
}

// RGBA implements color.Color. Transparent colors have zero alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	if c.Transparent() {
		return 0, 0, 0, 0
	}
	expand := func(v uint8) uint32 {
		x := uint32(v)<<3 | uint32(v)>>2
		return x<<8 | x
	}
	return expand(c.R), expand(c.G), expand(c.B), 0xffff
}

// ColorModel converts any color to a Color. Colors with alpha below half
// become transparent and opaque black has the mask bit set so that it is
// still drawn.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return Color{}
	}
	v := Color{uint8(r >> 11), uint8(g >> 11), uint8(b >> 11), false}
	if v.Transparent() {
		v.Mask = true
	}
	return v
})

// FromColor is a convenience wrapper around ColorModel
func FromColor(c color.Color) Color {
	return ColorModel.Convert(c).(Color)
}
