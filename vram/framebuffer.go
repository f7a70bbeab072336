package vram

import "fmt"

// Resolution is a display mode supported by the console
type Resolution struct {
	Width, Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Resolutions lists the display modes that can be selected
var Resolutions = []Resolution{
	{256, 240}, {256, 480},
	{320, 240}, {320, 480},
	{368, 240}, {368, 480},
	{512, 240}, {512, 480},
	{640, 240}, {640, 480},
}

func supported(res Resolution) bool {
	for _, r := range Resolutions {
		if r == res {
			return true
		}
	}
	return false
}

// Framebuffers returns the VRAM regions reserved for display output. The
// first buffer always sits at the origin; when double buffering the second
// is placed below it for a vertical layout or to its right otherwise.
func Framebuffers(res Resolution, dual, vertical bool) ([]Rect, error) {
	if !supported(res) {
		return nil, fmt.Errorf("%w: unsupported resolution %s", ErrInvalidConfiguration, res)
	}

	buffers := []Rect{{0, 0, res.Width, res.Height}}
	if !dual {
		return buffers, nil
	}

	second := Rect{res.Width, 0, res.Width, res.Height}
	if vertical {
		second = Rect{0, res.Height, res.Width, res.Height}
	}
	if !Bounds.Contains(second) {
		layout := "horizontal"
		if vertical {
			layout = "vertical"
		}
		return nil, fmt.Errorf("%w: cannot double buffer %s with a %s layout", ErrInvalidConfiguration, res, layout)
	}

	return append(buffers, second), nil
}
