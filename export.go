package psxsplash

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/bodgit/psxsplash/fixed"
	"github.com/bodgit/psxsplash/scene"
	"github.com/bodgit/psxsplash/vram"
	"github.com/mitchellh/go-homedir"
)

// Stage is a step of an export
type Stage int

// Export stages, in the order they run
const (
	StageIdle Stage = iota
	StagePacking
	StageGeometry
	StageSerializing
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:        "idle",
	StagePacking:     "packing",
	StageGeometry:    "geometry",
	StageSerializing: "serializing",
	StageDone:        "done",
	StageFailed:      "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Progress is reported as an export advances. Index counts up to Total
// within a stage.
type Progress struct {
	Stage        Stage
	Index, Total int
}

type ProgressFunc func(Progress)

type scriptList struct {
	m       *Manifest
	index   map[string]int
	scripts []scene.Script
}

// add returns the index of the script in p, reading it the first time it
// is seen
func (l *scriptList) add(p string) (int, error) {
	file, err := l.m.Path(p)
	if err != nil {
		return 0, err
	}
	if i, ok := l.index[file]; ok {
		return i, nil
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return 0, err
	}
	if !utf8.Valid(b) {
		return 0, fmt.Errorf("%w: script \"%s\" is not UTF-8", ErrInvalidManifest, file)
	}

	i := len(l.scripts)
	l.index[file] = i
	l.scripts = append(l.scripts, scene.Script{Name: p, Source: b})
	return i, nil
}

func widen(v [3]int16) [3]int32 {
	return [3]int32{int32(v[0]), int32(v[1]), int32(v[2])}
}

// textures returns the distinct textures used by the manifest objects and,
// for each object, the index of the texture of each of its materials
func (m *Manifest) textures() ([]textureKey, [][]int, error) {
	var keys []textureKey
	index := make(map[textureKey]int)
	objects := make([][]int, len(m.Objects))
	for i := range m.Objects {
		for _, ref := range m.Objects[i].Materials() {
			p, err := m.Path(ref.Path)
			if err != nil {
				return nil, nil, err
			}
			key := textureKey{p, vram.BitDepth(ref.BitDepth)}
			n, ok := index[key]
			if !ok {
				n = len(keys)
				index[key] = n
				keys = append(keys, key)
			}
			objects[i] = append(objects[i], n)
		}
	}
	return keys, objects, nil
}

func (s *Splash) pack(ctx context.Context, m *Manifest) ([]*vram.Texture, [][]int, *vram.Result, error) {
	keys, objects, err := m.textures()
	if err != nil {
		return nil, nil, nil, err
	}

	s.progress(StagePacking, 0, len(keys))

	textures, err := s.loadTextures(ctx, keys)
	if err != nil {
		return nil, nil, nil, err
	}

	reserved, err := vram.Framebuffers(m.Display(), m.DualBuffering, m.VerticalLayout)
	if err != nil {
		return nil, nil, nil, err
	}

	var prohibited []vram.Rect
	for _, a := range m.Prohibited {
		prohibited = append(prohibited, a.Rect())
	}

	packer, err := vram.NewPacker(reserved, prohibited)
	if err != nil {
		return nil, nil, nil, err
	}
	packer.Progress = func(index, total int) {
		s.progress(StagePacking, index, total)
	}

	result, err := packer.Pack(textures)
	if err != nil {
		return nil, nil, nil, err
	}

	s.logger.Printf("Packed %d textures into %d atlases with %d CLUTs\n", len(textures), len(result.Atlases), len(result.Cluts))

	return textures, objects, result, nil
}

// Build packs the textures and converts the geometry of m, returning the
// scene ready to be encoded along with the packed VRAM
func (s *Splash) Build(ctx context.Context, m *Manifest) (*scene.Scene, *vram.Result, error) {
	textures, objects, result, err := s.pack(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	sc := &scene.Scene{
		Atlases:     result.Atlases,
		Cluts:       result.Cluts,
		SceneScript: scene.NoScript,
	}
	scripts := &scriptList{m: m, index: make(map[string]int)}
	scale := fixed.PositionScale(m.GTEScaling)

	for i, o := range m.Objects {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		s.progress(StageGeometry, i, len(m.Objects))

		obj := scene.Object{
			Name:     o.Name,
			Position: widen(fixed.Position(o.Position, scale)),
			Script:   scene.NoScript,
			Active:   o.IsActive(),
		}

		rotation := fixed.RotationMatrix(o.Rotation)
		for row := range rotation {
			obj.Rotation[row] = widen(rotation[row])
		}

		if o.Script != "" {
			if obj.Script, err = scripts.add(o.Script); err != nil {
				return nil, nil, err
			}
		}

		for _, t := range o.Triangles {
			tex := textures[objects[i][t.Texture]]
			tri := scene.Triangle{Texture: result.Placements[tex.ID]}
			for j, v := range t.Vertices {
				tri.Vertices[j] = scene.Vertex{
					Position: fixed.Position(v.Position, scale),
					Normal:   fixed.Normal(v.Normal),
					Color:    v.Color,
					UV:       fixed.UV(v.UV, tex.Width, tex.Height),
				}
			}
			obj.Triangles = append(obj.Triangles, tri)
		}

		sc.Objects = append(sc.Objects, obj)
	}
	s.progress(StageGeometry, len(m.Objects), len(m.Objects))

	if m.SceneScript != "" {
		if sc.SceneScript, err = scripts.add(m.SceneScript); err != nil {
			return nil, nil, err
		}
	}
	sc.Scripts = scripts.scripts

	for _, n := range m.NavMeshes {
		var nav scene.NavMesh
		for _, t := range n.Triangles {
			var tri [3][3]int32
			for j, v := range t {
				tri[j] = widen(fixed.Position(v, scale))
			}
			nav.Triangles = append(nav.Triangles, tri)
		}
		sc.NavMeshes = append(sc.NavMeshes, nav)
	}

	sc.Player = scene.Player{
		Position: fixed.Position(m.Player.Position, scale),
		Rotation: fixed.Angles(m.Player.Rotation),
		Height:   fixed.WorldToFixed(m.Player.Height, scale),
	}

	return sc, result, nil
}

// writeFile creates file and passes it to fn, removing it again if
// anything fails
func writeFile(file string, fn func(*os.File) error) (err error) {
	file, err = homedir.Expand(file)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(file)
		}
	}()

	return fn(f)
}

// Export builds the scene described by m and writes it to out. Nothing is
// created unless packing and geometry conversion succeed, and a partially
// written file is removed.
func (s *Splash) Export(ctx context.Context, m *Manifest, out string) error {
	sc, _, err := s.Build(ctx, m)
	if err != nil {
		s.progress(StageFailed, 0, 0)
		return err
	}

	s.progress(StageSerializing, 0, 1)

	if err := writeFile(out, func(f *os.File) error {
		return scene.Encode(f, sc)
	}); err != nil {
		s.progress(StageFailed, 0, 0)
		return err
	}

	s.progress(StageSerializing, 1, 1)
	s.progress(StageDone, 0, 0)

	s.logger.Printf("Wrote \"%s\": %d objects, %d scripts, %d navmeshes\n", out, len(sc.Objects), len(sc.Scripts), len(sc.NavMeshes))

	return nil
}

// DumpVRAM packs the textures of m and writes the whole of VRAM to out,
// bottom row first
func (s *Splash) DumpVRAM(ctx context.Context, m *Manifest, out string) error {
	_, _, result, err := s.pack(ctx, m)
	if err != nil {
		return err
	}

	return writeFile(out, func(f *os.File) error {
		_, err := result.Buffer.WriteTo(f)
		return err
	})
}

// Inspect reads the header and metadata of the scene file in file
func Inspect(file string) (*scene.Index, error) {
	file, err := homedir.Expand(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return scene.Decode(f)
}
