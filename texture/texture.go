/*
Package texture converts ordinary images into textures that can be packed
into console VRAM.

Images larger than 256 pixels in either direction are scaled down to fit a
texture page. For 4-bit and 8-bit textures the image is reduced to at most
16 or 256 colors with a median cut quantizer if it has more distinct 15-bit
colors than that.
*/
package texture

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"

	"github.com/bodgit/psxsplash/vram"
	"github.com/ericpauley/go-quantize/quantize"
	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// Decode reads an image in any registered format
func Decode(r io.Reader) (image.Image, error) {
	m, _, err := image.Decode(r)
	return m, err
}

// fit scales m down so neither side exceeds vram.MaxTextureSize, keeping
// the aspect ratio
func fit(m image.Image) image.Image {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= vram.MaxTextureSize && h <= vram.MaxTextureSize {
		return m
	}

	if w > h {
		w, h = vram.MaxTextureSize, max(1, h*vram.MaxTextureSize/w)
	} else {
		w, h = max(1, w*vram.MaxTextureSize/h), vram.MaxTextureSize
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

func pixels(m image.Image) []vram.Color {
	b := m.Bounds()
	out := make([]vram.Color, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, vram.FromColor(m.At(x, y)))
		}
	}
	return out
}

func countColors(p []vram.Color) int {
	colors := make(map[vram.Color]struct{})
	for _, c := range p {
		colors[c] = struct{}{}
	}
	return len(colors)
}

// reduce quantizes m to no more than n colors
func reduce(m image.Image, n int) *image.Paletted {
	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm != nil && len(pm.Palette) <= n {
		return pm
	}

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, n), m)

	pm = image.NewPaletted(b, palette)
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Convert turns m into a texture of the given bit depth
func Convert(id string, m image.Image, depth vram.BitDepth) (*vram.Texture, error) {
	if !depth.Valid() {
		return nil, fmt.Errorf("%w: %s has unsupported depth %d", vram.ErrInvalidTexture, id, int(depth))
	}

	m = fit(m)
	b := m.Bounds()

	t := &vram.Texture{
		ID:     id,
		Width:  b.Dx(),
		Height: b.Dy(),
		Depth:  depth,
		Pixels: pixels(m),
	}

	if depth.Indexed() && countColors(t.Pixels) > depth.Colors() {
		t.Pixels = pixels(reduce(m, depth.Colors()))
	}

	return t, nil
}
