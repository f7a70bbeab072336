package vram

import (
	"fmt"
	"sort"
)

// Placement records where a texture landed in VRAM
type Placement struct {
	ID    string
	Depth BitDepth
	// Rect is the footprint of the texture in VRAM words
	Rect  Rect
	Atlas int

	// TexpageX and TexpageY address the texture page containing the
	// texture, in units of 64 words and 256 rows respectively
	TexpageX, TexpageY int
	// PackingX and PackingY are the offset of the texture from the
	// origin of its texture page, in words and rows
	PackingX, PackingY int

	// Clut is the index into Result.Cluts, or -1 for direct color
	Clut         int
	ClutX, ClutY int
}

// Clut is a color look-up table stored as a single row of VRAM words
type Clut struct {
	Colors []Color
	X, Y   int
	Atlas  int
}

func (c *Clut) Words() []uint16 {
	w := make([]uint16, len(c.Colors))
	for i, col := range c.Colors {
		w[i] = col.Pack()
	}
	return w
}

func (c *Clut) equal(colors []Color) bool {
	if len(c.Colors) != len(colors) {
		return false
	}
	for i := range colors {
		if c.Colors[i] != colors[i] {
			return false
		}
	}
	return true
}

// Atlas is a contiguous claimed region of VRAM holding one or more textures
type Atlas struct {
	Rect     Rect
	Textures []string
	Cluts    []int
	// Pixels is a copy of the VRAM words covered by Rect, top row first
	Pixels []uint16
}

// Result is the output of a successful pack
type Result struct {
	Buffer     *Buffer
	Atlases    []*Atlas
	Cluts      []*Clut
	Placements map[string]*Placement
}

// Packer places textures into the VRAM space left free by the reserved
// framebuffers and any prohibited regions.
type Packer struct {
	reserved   []Rect
	prohibited []Rect

	// Progress, if set, is called after each texture is placed
	Progress func(index, total int)
}

// NewPacker returns a Packer after checking that every region lies within
// VRAM
func NewPacker(reserved, prohibited []Rect) (*Packer, error) {
	for _, set := range []struct {
		name  string
		rects []Rect
	}{
		{"reserved", reserved},
		{"prohibited", prohibited},
	} {
		for _, r := range set.rects {
			if r.Width < 0 || r.Height < 0 || !Bounds.Contains(r) {
				return nil, fmt.Errorf("%w: %s region %s is outside VRAM", ErrInvalidConfiguration, set.name, r)
			}
		}
	}
	return &Packer{
		reserved:   reserved,
		prohibited: prohibited,
	}, nil
}

// Pack is a convenience wrapper around NewPacker and Packer.Pack
func Pack(textures []*Texture, reserved, prohibited []Rect) (*Result, error) {
	p, err := NewPacker(reserved, prohibited)
	if err != nil {
		return nil, err
	}
	return p.Pack(textures)
}

// FreeSpace returns the disjoint rectangles available for packing, ordered
// top to bottom then left to right. No rectangle crosses a texture page row.
func (p *Packer) FreeSpace() []Rect {
	free := []Rect{Bounds}
	for _, blocker := range append(append([]Rect{}, p.reserved...), p.prohibited...) {
		var next []Rect
		for _, f := range free {
			next = append(next, f.Subtract(blocker)...)
		}
		free = next
	}

	var out []Rect
	for _, f := range free {
		out = append(out, f.splitRows(pageHeight)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

type source struct {
	texture *Texture
	palette []Color
	indices []uint8
}

// Pack places every texture and builds the atlases and CLUTs. It is
// deterministic for identical input. Nothing is returned on failure.
func (p *Packer) Pack(textures []*Texture) (*Result, error) {
	sources := make([]source, len(textures))
	ids := make(map[string]struct{}, len(textures))
	for i, t := range textures {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, ok := ids[t.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate texture %q", ErrInvalidTexture, t.ID)
		}
		ids[t.ID] = struct{}{}

		sources[i].texture = t
		if t.Depth.Indexed() {
			palette, indices, err := t.palette()
			if err != nil {
				return nil, err
			}
			sources[i].palette, sources[i].indices = palette, indices
		}
	}

	// Tallest first, then widest, otherwise keep the input order
	order := make([]int, len(sources))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := sources[order[i]].texture, sources[order[j]].texture
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		return a.WordWidth() > b.WordWidth()
	})

	a := newAllocator(p.FreeSpace())
	result := &Result{
		Buffer:     NewBuffer(),
		Placements: make(map[string]*Placement, len(sources)),
	}

	// Placements grouped by the free region they landed in
	byRegion := make(map[int][]*Placement)

	for n, i := range order {
		s := sources[i]
		t := s.texture
		w, h := t.WordWidth(), t.Height
		window := t.Depth.window()

		r, region, ok := a.place(w, h, func(x int) int {
			page := x - x%pageWidth
			if x+w > page+window {
				return page + pageWidth
			}
			return x
		})
		if !ok {
			return nil, fmt.Errorf("%w: no room for %s (%dx%d words)", ErrPackingOverflow, t.ID, w, h)
		}

		for y := 0; y < h; y++ {
			for x, v := range t.words(y, s.indices) {
				result.Buffer.Set(r.X+x, r.Y+y, v)
			}
		}

		pl := &Placement{
			ID:       t.ID,
			Depth:    t.Depth,
			Rect:     r,
			TexpageX: r.X / pageWidth,
			TexpageY: r.Y / pageHeight,
			PackingX: r.X % pageWidth,
			PackingY: r.Y % pageHeight,
			Clut:     -1,
		}
		result.Placements[t.ID] = pl
		byRegion[region] = append(byRegion[region], pl)

		if p.Progress != nil {
			p.Progress(n, len(order))
		}
	}

	regions := make([]int, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Ints(regions)

	for _, region := range regions {
		atlas := &Atlas{}
		index := len(result.Atlases)
		for _, pl := range byRegion[region] {
			pl.Atlas = index
			atlas.Rect = union(atlas.Rect, pl.Rect)
			atlas.Textures = append(atlas.Textures, pl.ID)
		}
		result.Atlases = append(result.Atlases, atlas)
	}

	if err := p.packCluts(a, sources, regions, result); err != nil {
		return nil, err
	}

	for _, atlas := range result.Atlases {
		atlas.Pixels = result.Buffer.Region(atlas.Rect)
	}

	return result, nil
}

// packCluts gives every indexed texture a CLUT, sharing identical tables
// within an atlas. A CLUT is always placed in the free region of the atlas
// that owns it.
func (p *Packer) packCluts(a *allocator, sources []source, regions []int, result *Result) error {
	palettes := make(map[string][]Color, len(sources))
	for _, s := range sources {
		if s.texture.Depth.Indexed() {
			palettes[s.texture.ID] = s.palette
		}
	}

	for ai, atlas := range result.Atlases {
		for _, id := range atlas.Textures {
			colors, ok := palettes[id]
			if !ok {
				continue
			}
			pl := result.Placements[id]

			found := -1
			for _, ci := range atlas.Cluts {
				if result.Cluts[ci].equal(colors) {
					found = ci
					break
				}
			}

			if found < 0 {
				r, _, ok := a.placeIn(regions[ai], len(colors), 1, func(x int) int {
					return (x + 15) &^ 15
				})
				if !ok {
					return fmt.Errorf("%w: no room for CLUT of %s", ErrPackingOverflow, id)
				}
				clut := &Clut{
					Colors: colors,
					X:      r.X,
					Y:      r.Y,
					Atlas:  ai,
				}
				for x, v := range clut.Words() {
					result.Buffer.Set(r.X+x, r.Y, v)
				}
				found = len(result.Cluts)
				result.Cluts = append(result.Cluts, clut)
				atlas.Cluts = append(atlas.Cluts, found)
			}

			pl.Clut = found
			pl.ClutX, pl.ClutY = result.Cluts[found].X, result.Cluts[found].Y
		}
	}
	return nil
}

func union(a, b Rect) Rect {
	if a.Empty() {
		return b
	}
	x0, y0 := min(a.X, b.X), min(a.Y, b.Y)
	x1, y1 := max(a.right(), b.right()), max(a.bottom(), b.bottom())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}
