package psxsplash

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/psxsplash/scene"
	"github.com/bodgit/psxsplash/vram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	m, err := LoadManifest(testScene(t))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "scene.bin")
	s := testSplash(t)
	require.NoError(t, s.Export(context.Background(), m, out))

	idx, err := Inspect(out)
	require.NoError(t, err)

	h := idx.Header
	assert.Equal(t, uint16(1), h.Objects)
	assert.Equal(t, uint16(1), h.Atlases)
	assert.Equal(t, uint16(1), h.Cluts)
	assert.Equal(t, uint16(2), h.Scripts)
	assert.Equal(t, uint16(1), h.NavMeshes)
	assert.Equal(t, int16(1), h.SceneScript)
	assert.Equal(t, [3]int16{41, -82, 123}, h.PlayerPosition)
	assert.Equal(t, [3]int16{0, 6434, 0}, h.PlayerRotation)
	assert.Equal(t, int16(61), h.PlayerHeight)

	o := idx.Objects[0]
	assert.Equal(t, uint16(2), o.Triangles)
	assert.Equal(t, [3]int32{0, -41, 0}, o.Position)
	assert.Equal(t, [9]int32{4096, 0, 0, 0, 4096, 0, 0, 0, 4096}, o.Rotation)
	assert.Equal(t, int16(0), o.Script)
	assert.True(t, o.Active())

	// Both framebuffers sit side by side at the top left, so the texture
	// goes to the right of them
	a := idx.Atlases[0]
	assert.Equal(t, uint16(640), a.X)
	assert.Equal(t, uint16(0), a.Y)
	assert.Equal(t, uint16(8), a.Width)
	assert.Equal(t, uint16(16), a.Height)

	c := idx.Cluts[0]
	assert.Equal(t, uint16(4), c.Colors)
	assert.Equal(t, uint16(656), c.X)
	assert.Equal(t, uint16(0), c.Y)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	triangles, err := idx.Triangles(f, 0)
	require.NoError(t, err)
	require.Len(t, triangles, 2)

	tri := triangles[0]
	assert.Equal(t, [3][3]int16{{0, 0, 0}, {41, 0, 0}, {0, 0, 41}}, tri.Positions)
	assert.Equal(t, [3]int16{0, -4096, 0}, tri.Normal)
	assert.Equal(t, [3][2]uint8{{0, 15}, {15, 15}, {0, 0}}, tri.UVs)
	assert.Equal(t, uint16(10|1<<7|1<<9), tri.Tpage)
	assert.Equal(t, uint16(656), tri.ClutX)
	assert.Equal(t, [4]uint8{0, 0, 255, 0}, triangles[1].Colors[2])
}

func TestExportProgress(t *testing.T) {
	m, err := LoadManifest(testScene(t))
	require.NoError(t, err)

	var events []Progress
	s := testSplash(t)
	s.Progress = func(p Progress) {
		events = append(events, p)
	}
	require.NoError(t, s.Export(context.Background(), m, filepath.Join(t.TempDir(), "scene.bin")))

	require.NotEmpty(t, events)
	assert.Equal(t, StagePacking, events[0].Stage)
	assert.Equal(t, StageDone, events[len(events)-1].Stage)

	seen := make(map[Stage]bool)
	for i, e := range events {
		seen[e.Stage] = true
		if i > 0 {
			assert.GreaterOrEqual(t, int(e.Stage), int(events[i-1].Stage), "stages never go backwards")
		}
	}
	assert.True(t, seen[StageGeometry])
	assert.True(t, seen[StageSerializing])
	assert.False(t, seen[StageFailed])
}

func TestExportSharedScripts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, 2)
	writeFileString(t, filepath.Join(dir, "shared.lua"), "x = 1\n")

	m, err := ParseManifest([]byte(`
scene_script: shared.lua
objects:
  - {name: a, script: shared.lua, texture: {path: a.png}}
  - {name: b, script: ./shared.lua, texture: {path: a.png}}
  - {name: c, texture: {path: a.png, bit_depth: 16}}
`), dir)
	require.NoError(t, err)

	sc, result, err := testSplash(t).Build(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, sc.Scripts, 1)
	assert.Equal(t, 0, sc.SceneScript)
	assert.Equal(t, 0, sc.Objects[0].Script)
	assert.Equal(t, 0, sc.Objects[1].Script)
	assert.Equal(t, scene.NoScript, sc.Objects[2].Script)

	// One image at two depths is two textures
	assert.Len(t, result.Placements, 2)
	assert.Len(t, result.Cluts, 1)
}

func TestExportOverflow(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, 2)

	m, err := ParseManifest([]byte(`
prohibited:
  - {x: 0, y: 0, width: 1024, height: 512}
objects:
  - {name: a, texture: {path: a.png}}
`), dir)
	require.NoError(t, err)

	var failed bool
	s := testSplash(t)
	s.Progress = func(p Progress) {
		if p.Stage == StageFailed {
			failed = true
		}
	}

	out := filepath.Join(t.TempDir(), "scene.bin")
	assert.ErrorIs(t, s.Export(context.Background(), m, out), vram.ErrPackingOverflow)
	assert.True(t, failed)
	assert.NoFileExists(t, out)
}

func TestExportInvalidConfiguration(t *testing.T) {
	tables := map[string]string{
		"resolution": "resolution: [300, 200]",
		"dual":       "resolution: [640, 480]\ndual_buffering: true\nvertical_layout: true",
		"prohibited": "prohibited: [{x: 1000, y: 0, width: 100, height: 10}]",
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			m, err := ParseManifest([]byte(table), t.TempDir())
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "scene.bin")
			assert.ErrorIs(t, testSplash(t).Export(context.Background(), m, out), vram.ErrInvalidConfiguration)
			assert.NoFileExists(t, out)
		})
	}
}

func TestExportMissingScript(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, 2)

	m, err := ParseManifest([]byte(`
scene_script: missing.lua
objects:
  - {name: a, texture: {path: a.png}}
`), dir)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "scene.bin")
	assert.ErrorIs(t, testSplash(t).Export(context.Background(), m, out), os.ErrNotExist)
	assert.NoFileExists(t, out)
}

func TestExportCancelled(t *testing.T) {
	m, err := LoadManifest(testScene(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "scene.bin")
	assert.ErrorIs(t, testSplash(t).Export(ctx, m, out), context.Canceled)
	assert.NoFileExists(t, out)
}

func TestExportEmpty(t *testing.T) {
	m, err := ParseManifest(nil, t.TempDir())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "scene.bin")
	require.NoError(t, testSplash(t).Export(context.Background(), m, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(32), info.Size())

	idx, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, int16(scene.NoScript), idx.Header.SceneScript)
}

func TestDumpVRAM(t *testing.T) {
	m, err := LoadManifest(testScene(t))
	require.NoError(t, err)

	s := testSplash(t)
	_, result, err := s.Build(context.Background(), m)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "vram.bin")
	require.NoError(t, s.DumpVRAM(context.Background(), m, out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, b, vram.Width*vram.Height*2)

	// Rows are written bottom up
	row := func(y int) []byte {
		return b[(vram.Height-1-y)*vram.Width*2:]
	}
	assert.NotZero(t, result.Buffer.At(640, 0))
	assert.Equal(t, result.Buffer.At(640, 0), binary.LittleEndian.Uint16(row(0)[640*2:]))
	assert.Equal(t, result.Buffer.At(656, 0), binary.LittleEndian.Uint16(row(0)[656*2:]))
}

func TestExportSharedTexture(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 32, 32, 20)

	m, err := ParseManifest([]byte(`
objects:
  - name: quad
    texture: {path: a.png, bit_depth: 8}
    triangles:
      - vertices: [{uv: [0, 0]}, {uv: [1, 0]}, {uv: [0, 1]}]
      - vertices: [{uv: [1, 0]}, {uv: [1, 1]}, {uv: [0, 1]}]
`), dir)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "scene.bin")
	require.NoError(t, testSplash(t).Export(context.Background(), m, out))

	idx, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), idx.Header.Objects)
	assert.Equal(t, uint16(1), idx.Header.Cluts)
	assert.Equal(t, uint16(0), idx.Header.Scripts)
	assert.Equal(t, uint16(0), idx.Header.NavMeshes)
	assert.Equal(t, uint16(2), idx.Objects[0].Triangles)
	assert.Equal(t, int16(scene.NoScript), idx.Objects[0].Script)
}

func TestExportMaterials(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 16, 16, 4)
	writePNG(t, filepath.Join(dir, "b.png"), 16, 16, 6)

	m, err := ParseManifest([]byte(`
objects:
  - name: crate
    textures:
      - {path: a.png, bit_depth: 8}
      - {path: b.png, bit_depth: 4}
    triangles:
      - vertices: [{uv: [0, 0]}, {uv: [1, 0]}, {uv: [0, 1]}]
      - texture: 1
        vertices: [{uv: [1, 0]}, {uv: [1, 1]}, {uv: [0, 1]}]
`), dir)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "scene.bin")
	require.NoError(t, testSplash(t).Export(context.Background(), m, out))

	idx, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), idx.Header.Objects)
	assert.Equal(t, uint16(2), idx.Header.Cluts)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	triangles, err := idx.Triangles(f, 0)
	require.NoError(t, err)
	require.Len(t, triangles, 2)

	mode := func(tpage uint16) uint16 {
		return tpage >> 7 & 3
	}
	assert.Equal(t, uint16(1), mode(triangles[0].Tpage))
	assert.Equal(t, uint16(0), mode(triangles[1].Tpage))
	assert.NotEqual(t, triangles[0].ClutX, triangles[1].ClutX)

	cluts := make(map[uint16]bool)
	for _, c := range idx.Cluts {
		cluts[c.X] = true
	}
	assert.True(t, cluts[triangles[0].ClutX])
	assert.True(t, cluts[triangles[1].ClutX])
}
