package vram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectOverlaps(t *testing.T) {
	r := Rect{10, 10, 10, 10}
	assert.True(t, r.Overlaps(Rect{15, 15, 10, 10}))
	assert.True(t, r.Overlaps(Rect{0, 0, 100, 100}))
	assert.False(t, r.Overlaps(Rect{20, 10, 10, 10}), "touching edges do not overlap")
	assert.False(t, r.Overlaps(Rect{10, 20, 10, 10}))
	assert.False(t, r.Overlaps(Rect{12, 12, 0, 5}), "empty rectangles never overlap")
}

func TestRectContains(t *testing.T) {
	assert.True(t, Bounds.Contains(Rect{0, 0, Width, Height}))
	assert.True(t, Bounds.Contains(Rect{1000, 500, 24, 12}))
	assert.False(t, Bounds.Contains(Rect{1000, 500, 25, 12}))
	assert.False(t, Bounds.Contains(Rect{-1, 0, 10, 10}))
}

func TestRectSubtract(t *testing.T) {
	tables := []struct {
		name    string
		r, b    Rect
		pieces  int
		covered int
	}{
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 5, 5}, 1, 0},
		{"centre", Rect{0, 0, 10, 10}, Rect{2, 2, 4, 4}, 4, 16},
		{"corner", Rect{0, 0, 10, 10}, Rect{0, 0, 5, 5}, 2, 25},
		{"full width band", Rect{0, 0, 10, 10}, Rect{0, 4, 10, 2}, 2, 20},
		{"everything", Rect{0, 0, 10, 10}, Rect{-5, -5, 20, 20}, 0, 100},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			pieces := table.r.Subtract(table.b)
			require.Len(t, pieces, table.pieces)

			area := 0
			for i, p := range pieces {
				assert.False(t, p.Empty())
				assert.True(t, table.r.Contains(p))
				assert.False(t, p.Overlaps(table.b))
				for _, q := range pieces[i+1:] {
					assert.False(t, p.Overlaps(q))
				}
				area += p.Area()
			}
			assert.Equal(t, table.r.Area()-table.covered, area)
		})
	}
}

func TestRectSplitRows(t *testing.T) {
	assert.Equal(t, []Rect{{0, 200, 8, 56}, {0, 256, 8, 44}}, Rect{0, 200, 8, 100}.splitRows(pageHeight))
	assert.Equal(t, []Rect{{0, 0, 8, 256}}, Rect{0, 0, 8, 256}.splitRows(pageHeight))
}

func TestFramebuffers(t *testing.T) {
	fb, err := Framebuffers(Resolution{320, 240}, true, true)
	require.NoError(t, err)
	assert.Equal(t, []Rect{{0, 0, 320, 240}, {0, 240, 320, 240}}, fb)

	fb, err = Framebuffers(Resolution{320, 240}, true, false)
	require.NoError(t, err)
	assert.Equal(t, []Rect{{0, 0, 320, 240}, {320, 0, 320, 240}}, fb)

	fb, err = Framebuffers(Resolution{640, 480}, false, true)
	require.NoError(t, err)
	assert.Equal(t, []Rect{{0, 0, 640, 480}}, fb)

	_, err = Framebuffers(Resolution{640, 480}, true, true)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Framebuffers(Resolution{640, 480}, true, false)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Framebuffers(Resolution{300, 200}, false, false)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
