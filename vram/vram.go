/*
Package vram implements the video memory model of the console and a packer
that places textures and their color look-up tables (CLUTs) into it.

VRAM is a 1024 by 512 grid of 16-bit words. Each word is either a direct
color, stored as 5 bits per channel plus a mask bit, or a run of packed
palette indices for 4-bit and 8-bit textures. Textures are addressed through
texture pages that are 64 words wide and 256 rows tall.
*/
package vram

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// Width is the width of VRAM in 16-bit words
	Width = 1024
	// Height is the height of VRAM in rows
	Height = 512

	pageWidth  = 64
	pageHeight = 256

	// MaxTextureSize is the largest width or height in texels that can be
	// addressed by a single byte UV coordinate
	MaxTextureSize = 256
)

var (
	// ErrPackingOverflow is returned when a texture or CLUT cannot be
	// placed in the remaining free space
	ErrPackingOverflow = errors.New("vram: packing overflow")
	// ErrInvalidConfiguration is returned for reserved or prohibited
	// regions outside of VRAM or an unsatisfiable framebuffer layout
	ErrInvalidConfiguration = errors.New("vram: invalid configuration")
	// ErrInvalidTexture is returned for textures that cannot be
	// represented at their requested bit depth
	ErrInvalidTexture = errors.New("vram: invalid texture")
)

// Bounds is the region covering the whole of VRAM
var Bounds = Rect{0, 0, Width, Height}

// Buffer is a snapshot of VRAM contents.
type Buffer struct {
	words [Width * Height]uint16
}

func NewBuffer() *Buffer {
	return new(Buffer)
}

func (b *Buffer) At(x, y int) uint16 {
	return b.words[y*Width+x]
}

func (b *Buffer) Set(x, y int, v uint16) {
	b.words[y*Width+x] = v
}

// Region returns a copy of the words covered by r, top row first
func (b *Buffer) Region(r Rect) []uint16 {
	out := make([]uint16, 0, r.Area())
	for y := r.Y; y < r.Y+r.Height; y++ {
		out = append(out, b.words[y*Width+r.X:y*Width+r.X+r.Width]...)
	}
	return out
}

// WriteTo writes the whole buffer to w as little-endian words. Rows are
// written bottom-up as expected by the console loader.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var n int64
	row := make([]byte, Width*2)
	for y := Height - 1; y >= 0; y-- {
		for x := 0; x < Width; x++ {
			binary.LittleEndian.PutUint16(row[x*2:], b.words[y*Width+x])
		}
		m, err := w.Write(row)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
