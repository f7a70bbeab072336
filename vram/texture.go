package vram

import "fmt"

// BitDepth is the number of bits per texel of a texture
type BitDepth int

// Supported bit depths
const (
	Depth4  BitDepth = 4
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
)

func (d BitDepth) String() string {
	return fmt.Sprintf("%d-bit", int(d))
}

func (d BitDepth) Valid() bool {
	return d == Depth4 || d == Depth8 || d == Depth16
}

func (d BitDepth) Indexed() bool {
	return d == Depth4 || d == Depth8
}

// Colors returns the maximum CLUT size for indexed depths
func (d BitDepth) Colors() int {
	if !d.Indexed() {
		return 0
	}
	return 1 << uint(d)
}

// Expander returns the number of texels stored in each VRAM word
func (d BitDepth) Expander() int {
	return 16 / int(d)
}

// ColorMode returns the texture page color mode field for d
func (d BitDepth) ColorMode() int {
	switch d {
	case Depth4:
		return 0
	case Depth8:
		return 1
	}
	return 2
}

// window is the number of words a texture page can address horizontally
func (d BitDepth) window() int {
	return MaxTextureSize / d.Expander()
}

// Texture is a source image ready to be placed in VRAM. Pixels are stored
// row-major and must hold Width*Height entries.
type Texture struct {
	ID     string
	Width  int
	Height int
	Depth  BitDepth
	Pixels []Color
}

// WordWidth returns the width of the texture in VRAM words
func (t *Texture) WordWidth() int {
	e := t.Depth.Expander()
	return (t.Width + e - 1) / e
}

func (t *Texture) validate() error {
	switch {
	case !t.Depth.Valid():
		return fmt.Errorf("%w: %s has unsupported depth %d", ErrInvalidTexture, t.ID, int(t.Depth))
	case t.Width <= 0 || t.Height <= 0:
		return fmt.Errorf("%w: %s is empty", ErrInvalidTexture, t.ID)
	case t.Width > MaxTextureSize || t.Height > MaxTextureSize:
		return fmt.Errorf("%w: %s is %dx%d, larger than %d", ErrInvalidTexture, t.ID, t.Width, t.Height, MaxTextureSize)
	case len(t.Pixels) != t.Width*t.Height:
		return fmt.Errorf("%w: %s has %d pixels, expected %d", ErrInvalidTexture, t.ID, len(t.Pixels), t.Width*t.Height)
	}
	return nil
}

// palette returns the distinct colors of t in order of first appearance
// along with the index of each pixel
func (t *Texture) palette() ([]Color, []uint8, error) {
	seen := make(map[Color]uint8)
	var palette []Color
	indices := make([]uint8, len(t.Pixels))
	for i, c := range t.Pixels {
		idx, ok := seen[c]
		if !ok {
			if len(palette) == t.Depth.Colors() {
				return nil, nil, fmt.Errorf("%w: %s has more than %d colors", ErrInvalidTexture, t.ID, t.Depth.Colors())
			}
			idx = uint8(len(palette))
			seen[c] = idx
			palette = append(palette, c)
		}
		indices[i] = idx
	}
	return palette, indices, nil
}

// words encodes one row of the texture as VRAM words. Indexed texels are
// packed starting from the least significant bits.
func (t *Texture) words(y int, indices []uint8) []uint16 {
	out := make([]uint16, t.WordWidth())
	if !t.Depth.Indexed() {
		for x := 0; x < t.Width; x++ {
			out[x] = t.Pixels[y*t.Width+x].Pack()
		}
		return out
	}
	e := t.Depth.Expander()
	for x := 0; x < t.Width; x++ {
		shift := uint(x%e) * uint(t.Depth)
		out[x/e] |= uint16(indices[y*t.Width+x]) << shift
	}
	return out
}
