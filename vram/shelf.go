package vram

// shelf is a horizontal strip cut from the top of a free region. Its height
// is fixed by the first item placed on it.
type shelf struct {
	rect   Rect
	cursor int
	region int
}

type allocator struct {
	free    []Rect
	shelves []*shelf
}

func newAllocator(free []Rect) *allocator {
	return &allocator{free: free}
}

// place finds room for a w by h item. align adjusts a candidate x position
// to one the item may legally start at. Existing shelves are tried in the
// order they were opened before a new shelf is cut from the first free
// region that can hold the item.
func (a *allocator) place(w, h int, align func(int) int) (Rect, int, bool) {
	return a.placeIn(-1, w, h, align)
}

// placeIn is place limited to the free region with index region, or any
// region if it is negative
func (a *allocator) placeIn(region, w, h int, align func(int) int) (Rect, int, bool) {
	for _, s := range a.shelves {
		if h > s.rect.Height || (region >= 0 && s.region != region) {
			continue
		}
		if x := align(s.cursor); x+w <= s.rect.right() {
			s.cursor = x + w
			return Rect{x, s.rect.Y, w, h}, s.region, true
		}
	}

	for i := range a.free {
		if region >= 0 && i != region {
			continue
		}
		f := &a.free[i]
		if f.Height < h {
			continue
		}
		x := align(f.X)
		if x+w > f.right() {
			continue
		}
		s := &shelf{
			rect:   Rect{f.X, f.Y, f.Width, h},
			cursor: x + w,
			region: i,
		}
		a.shelves = append(a.shelves, s)
		f.Y += h
		f.Height -= h
		return Rect{x, s.rect.Y, w, h}, i, true
	}

	return Rect{}, 0, false
}
