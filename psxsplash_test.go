package psxsplash

import (
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSplash(t *testing.T) *Splash {
	t.Helper()

	cache, err := NewCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return New(cache, log.New(ioutil.Discard, "", 0))
}

// writePNG writes a w by h image using n distinct colors
func writePNG(t *testing.T, file string, w, h, n int) {
	t.Helper()

	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) % n
			m.Set(x, y, color.NRGBA{uint8(i * 8), uint8(255 - i*8), 0x40, 0xff})
		}
	}

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func writeFileString(t *testing.T, file, s string) {
	t.Helper()
	require.NoError(t, os.WriteFile(file, []byte(s), 0o644))
}

const testManifest = `
gte_scaling: 100
resolution: [320, 240]
dual_buffering: true
scene_script: scene.lua
player:
  position: [1, 2, 3]
  rotation: [0, 90, 0]
  height: 1.5
objects:
  - name: crate
    position: [0, 1, 0]
    rotation: [0, 0, 0]
    script: crate.lua
    texture:
      path: crate.png
      bit_depth: 8
    triangles:
      - vertices:
          - {position: [0, 0, 0], normal: [0, 1, 0], color: [128, 128, 128], uv: [0, 0]}
          - {position: [1, 0, 0], normal: [0, 1, 0], color: [128, 128, 128], uv: [1, 0]}
          - {position: [0, 0, 1], normal: [0, 1, 0], color: [128, 128, 128], uv: [0, 1]}
      - vertices:
          - {position: [1, 0, 0], normal: [0, 1, 0], color: [255, 0, 0], uv: [1, 0]}
          - {position: [1, 0, 1], normal: [0, 1, 0], color: [0, 255, 0], uv: [1, 1]}
          - {position: [0, 0, 1], normal: [0, 1, 0], color: [0, 0, 255], uv: [0, 1]}
navmeshes:
  - triangles:
      - [[0, 0, 0], [10, 0, 0], [0, 0, 10]]
`

// testScene writes a manifest and everything it refers to into a temporary
// directory, returning the manifest path
func testScene(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "crate.png"), 16, 16, 4)
	writeFileString(t, filepath.Join(dir, "crate.lua"), "function onCreate() end\n")
	writeFileString(t, filepath.Join(dir, "scene.lua"), "print(\"hello\")\n")

	file := filepath.Join(dir, "scene.yaml")
	writeFileString(t, file, testManifest)
	return file
}
