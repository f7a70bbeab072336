package vram

import "fmt"

// Rect is an axis-aligned rectangle in VRAM coordinates
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func (r Rect) right() int  { return r.X + r.Width }
func (r Rect) bottom() int { return r.Y + r.Height }

func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether r and o share at least one word
func (r Rect) Overlaps(o Rect) bool {
	return !r.Empty() && !o.Empty() &&
		r.X < o.right() && o.X < r.right() &&
		r.Y < o.bottom() && o.Y < r.bottom()
}

// Contains reports whether o lies entirely within r
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.right() <= r.right() && o.bottom() <= r.bottom()
}

// Intersect returns the largest rectangle contained by both r and o
func (r Rect) Intersect(o Rect) Rect {
	if !r.Overlaps(o) {
		return Rect{}
	}
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.right(), o.right()), min(r.bottom(), o.bottom())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Subtract returns the parts of r not covered by b. The result is between
// zero and four disjoint rectangles: full width strips above and below b,
// then the pieces to the left and right of it.
func (r Rect) Subtract(b Rect) []Rect {
	if !r.Overlaps(b) {
		return []Rect{r}
	}
	i := r.Intersect(b)
	candidates := []Rect{
		{r.X, r.Y, r.Width, i.Y - r.Y},
		{r.X, i.bottom(), r.Width, r.bottom() - i.bottom()},
		{r.X, i.Y, i.X - r.X, i.Height},
		{i.right(), i.Y, r.right() - i.right(), i.Height},
	}
	var out []Rect
	for _, c := range candidates {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// splitRows cuts r at every multiple of step
func (r Rect) splitRows(step int) []Rect {
	var out []Rect
	for y := r.Y; y < r.bottom(); {
		next := min((y/step+1)*step, r.bottom())
		out = append(out, Rect{r.X, y, r.Width, next - y})
		y = next
	}
	return out
}
