package psxsplash

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/psxsplash/vram"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	defaultGTEScaling = 100
	defaultBitDepth   = vram.Depth8
)

var defaultResolution = vram.Resolution{Width: 320, Height: 240}

// ErrInvalidManifest is returned for a manifest that parses but describes
// something that cannot be exported
var ErrInvalidManifest = errors.New("invalid manifest")

type Area struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (a Area) Rect() vram.Rect {
	return vram.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}

type Player struct {
	Position [3]float64 `yaml:"position"`
	Rotation [3]float64 `yaml:"rotation"`
	Height   float64    `yaml:"height"`
}

// TextureRef names the image used by an object
type TextureRef struct {
	Path     string `yaml:"path"`
	BitDepth int    `yaml:"bit_depth"`
}

type Vertex struct {
	Position [3]float64 `yaml:"position"`
	Normal   [3]float64 `yaml:"normal"`
	Color    [3]uint8   `yaml:"color"`
	UV       [2]float64 `yaml:"uv"`
}

// Triangle is one triangle of an object mesh. Texture indexes the
// materials of the object.
type Triangle struct {
	Vertices [3]Vertex `yaml:"vertices"`
	Texture  int       `yaml:"texture"`
}

// Object is a renderable object. An object with a single material can use
// Texture, otherwise each material is listed in Textures.
type Object struct {
	Name      string       `yaml:"name"`
	Position  [3]float64   `yaml:"position"`
	Rotation  [3]float64   `yaml:"rotation"`
	Active    *bool        `yaml:"active"`
	Script    string       `yaml:"script"`
	Texture   TextureRef   `yaml:"texture"`
	Textures  []TextureRef `yaml:"textures"`
	Triangles []Triangle   `yaml:"triangles"`
}

// Materials returns the textures of the object in Triangle.Texture order
func (o *Object) Materials() []*TextureRef {
	if len(o.Textures) == 0 {
		return []*TextureRef{&o.Texture}
	}
	refs := make([]*TextureRef, len(o.Textures))
	for i := range o.Textures {
		refs[i] = &o.Textures[i]
	}
	return refs
}

// IsActive reports whether the object starts enabled, which is the default
func (o Object) IsActive() bool {
	return o.Active == nil || *o.Active
}

type NavMesh struct {
	Triangles [][3][3]float64 `yaml:"triangles"`
}

// Manifest describes a scene to export
type Manifest struct {
	GTEScaling     float64   `yaml:"gte_scaling"`
	Resolution     [2]int    `yaml:"resolution"`
	DualBuffering  bool      `yaml:"dual_buffering"`
	VerticalLayout bool      `yaml:"vertical_layout"`
	Prohibited     []Area    `yaml:"prohibited"`
	SceneScript    string    `yaml:"scene_script"`
	Player         Player    `yaml:"player"`
	Objects        []Object  `yaml:"objects"`
	NavMeshes      []NavMesh `yaml:"navmeshes"`

	// Dir is the directory relative paths are resolved against
	Dir string `yaml:"-"`
}

// LoadManifest reads and validates the manifest in file
func LoadManifest(file string) (*Manifest, error) {
	file, err := homedir.Expand(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := new(Manifest)
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	if m.Dir, err = filepath.Abs(filepath.Dir(file)); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// ParseManifest parses a manifest held in memory, resolving relative paths
// against dir
func ParseManifest(b []byte, dir string) (*Manifest, error) {
	m := &Manifest{Dir: dir}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && err != io.EOF {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate fills in defaults and checks the manifest for obvious mistakes
func (m *Manifest) Validate() error {
	if m.GTEScaling == 0 {
		m.GTEScaling = defaultGTEScaling
	}
	if m.GTEScaling < 0 {
		return fmt.Errorf("%w: gte_scaling must be positive", ErrInvalidManifest)
	}

	if m.Resolution == [2]int{} {
		m.Resolution = [2]int{defaultResolution.Width, defaultResolution.Height}
	}

	for i := range m.Objects {
		o := &m.Objects[i]
		if o.Name == "" {
			o.Name = fmt.Sprintf("object%d", i)
		}
		if o.Texture.Path != "" && len(o.Textures) > 0 {
			return fmt.Errorf("%w: object %q has both texture and textures", ErrInvalidManifest, o.Name)
		}

		materials := o.Materials()
		for _, ref := range materials {
			if ref.Path == "" {
				return fmt.Errorf("%w: object %q has no texture", ErrInvalidManifest, o.Name)
			}
			if ref.BitDepth == 0 {
				ref.BitDepth = int(defaultBitDepth)
			}
			if !vram.BitDepth(ref.BitDepth).Valid() {
				return fmt.Errorf("%w: object %q has unsupported bit depth %d", ErrInvalidManifest, o.Name, ref.BitDepth)
			}
		}

		for j, t := range o.Triangles {
			if t.Texture < 0 || t.Texture >= len(materials) {
				return fmt.Errorf("%w: triangle %d of object %q uses texture %d of %d", ErrInvalidManifest, j, o.Name, t.Texture, len(materials))
			}
		}
	}

	return nil
}

func (m *Manifest) Display() vram.Resolution {
	return vram.Resolution{Width: m.Resolution[0], Height: m.Resolution[1]}
}

// Path resolves a path named in the manifest
func (m *Manifest) Path(p string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(m.Dir, p), nil
}

// Files returns every file the manifest refers to, without duplicates
func (m *Manifest) Files() ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) error {
		if p == "" {
			return nil
		}
		p, err := m.Path(p)
		if err != nil {
			return err
		}
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
		return nil
	}

	for i := range m.Objects {
		o := &m.Objects[i]
		for _, ref := range o.Materials() {
			if err := add(ref.Path); err != nil {
				return nil, err
			}
		}
		if err := add(o.Script); err != nil {
			return nil, err
		}
	}
	if err := add(m.SceneScript); err != nil {
		return nil, err
	}

	return files, nil
}
