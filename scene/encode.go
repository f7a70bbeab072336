package scene

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const alignment = 4

type encoder struct {
	w   io.WriteSeeker
	pos int64

	scripts   offsetTable
	objects   offsetTable
	navMeshes offsetTable
	atlases   offsetTable
	cluts     offsetTable
}

func (e *encoder) write(v interface{}) error {
	if err := binary.Write(e.w, binary.LittleEndian, v); err != nil {
		return err
	}
	e.pos += int64(binary.Size(v))
	return nil
}

func (e *encoder) writeBytes(b []byte) error {
	n, err := e.w.Write(b)
	e.pos += int64(n)
	return err
}

// align pads with zero bytes up to the next four byte boundary
func (e *encoder) align() error {
	if pad := (alignment - e.pos%alignment) % alignment; pad > 0 {
		return e.writeBytes(make([]byte, pad))
	}
	return nil
}

// record writes a metadata record whose leading int32 is a zero
// placeholder, noting its position in t
func (e *encoder) record(t *offsetTable, v interface{}) error {
	t.placeholder(e.pos)
	return e.write(v)
}

// payload aligns the cursor and notes the start of the next payload in t
func (e *encoder) payload(t *offsetTable) error {
	if err := e.align(); err != nil {
		return err
	}
	t.resolve(e.pos)
	return nil
}

func count(name string, n int) (uint16, error) {
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("scene: too many %s (%d)", name, n)
	}
	return uint16(n), nil
}

func (e *encoder) header(s *Scene) error {
	h := Header{
		Magic:          Magic,
		Version:        Version,
		PlayerPosition: s.Player.Position,
		PlayerRotation: s.Player.Rotation,
		PlayerHeight:   s.Player.Height,
		SceneScript:    int16(s.SceneScript),
	}

	var err error
	for _, c := range []struct {
		name  string
		n     int
		field *uint16
	}{
		{"scripts", len(s.Scripts), &h.Scripts},
		{"objects", len(s.Objects), &h.Objects},
		{"navigation meshes", len(s.NavMeshes), &h.NavMeshes},
		{"atlases", len(s.Atlases), &h.Atlases},
		{"CLUTs", len(s.Cluts), &h.Cluts},
	} {
		if *c.field, err = count(c.name, c.n); err != nil {
			return err
		}
	}

	return e.write(&h)
}

func (e *encoder) metadata(s *Scene) error {
	for _, script := range s.Scripts {
		if err := e.record(&e.scripts, &ScriptRecord{Length: uint32(len(script.Source))}); err != nil {
			return err
		}
	}

	for _, o := range s.Objects {
		triangles, err := count("triangles in "+o.Name, len(o.Triangles))
		if err != nil {
			return err
		}
		r := ObjectRecord{
			Position:  o.Position,
			Triangles: triangles,
			Script:    int16(o.Script),
		}
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				r.Rotation[row*3+col] = o.Rotation[row][col]
			}
		}
		if o.Active {
			r.Flags |= flagActive
		}
		if err := e.record(&e.objects, &r); err != nil {
			return err
		}
	}

	for i, n := range s.NavMeshes {
		triangles, err := count(fmt.Sprintf("triangles in navigation mesh %d", i), len(n.Triangles))
		if err != nil {
			return err
		}
		if err := e.record(&e.navMeshes, &NavMeshRecord{Triangles: triangles}); err != nil {
			return err
		}
	}

	for _, a := range s.Atlases {
		r := AtlasRecord{
			Width:  uint16(a.Rect.Width),
			Height: uint16(a.Rect.Height),
			X:      uint16(a.Rect.X),
			Y:      uint16(a.Rect.Y),
		}
		if err := e.record(&e.atlases, &r); err != nil {
			return err
		}
	}

	for _, c := range s.Cluts {
		r := ClutRecord{
			X:      uint16(c.X),
			Y:      uint16(c.Y),
			Colors: uint16(len(c.Colors)),
		}
		if err := e.record(&e.cluts, &r); err != nil {
			return err
		}
	}

	return nil
}

func triangle(t Triangle) (*TriangleRecord, error) {
	p := t.Texture
	if p == nil {
		return nil, fmt.Errorf("scene: triangle has no texture")
	}
	expander := p.Depth.Expander()

	r := &TriangleRecord{
		Normal: t.Vertices[0].Normal,
		Tpage:  tpage(p),
		ClutX:  uint16(p.ClutX),
		ClutY:  uint16(p.ClutY),
	}
	for i, v := range t.Vertices {
		r.Positions[i] = v.Position
		r.Colors[i] = [4]uint8{v.Color[0], v.Color[1], v.Color[2], 0}
		r.UVs[i] = [2]uint8{
			uint8(int(v.UV[0]) + p.PackingX*expander),
			uint8(int(v.UV[1]) + p.PackingY),
		}
	}
	return r, nil
}

func (e *encoder) data(s *Scene) error {
	for _, script := range s.Scripts {
		if err := e.payload(&e.scripts); err != nil {
			return err
		}
		if err := e.writeBytes(script.Source); err != nil {
			return err
		}
	}

	for _, o := range s.Objects {
		if err := e.payload(&e.objects); err != nil {
			return err
		}
		for _, t := range o.Triangles {
			r, err := triangle(t)
			if err != nil {
				return fmt.Errorf("%s: %w", o.Name, err)
			}
			if err := e.write(r); err != nil {
				return err
			}
		}
	}

	for _, n := range s.NavMeshes {
		if err := e.payload(&e.navMeshes); err != nil {
			return err
		}
		if err := e.write(n.Triangles); err != nil {
			return err
		}
	}

	for _, a := range s.Atlases {
		if err := e.payload(&e.atlases); err != nil {
			return err
		}
		if err := e.write(a.Pixels); err != nil {
			return err
		}
	}

	for _, c := range s.Cluts {
		if err := e.payload(&e.cluts); err != nil {
			return err
		}
		if err := e.write(c.Words()); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes s to w. Metadata records are written first with zero
// offsets, then every payload, then the offsets are patched in. On error
// the contents of w are undefined and should be discarded.
func Encode(w io.WriteSeeker, s *Scene) error {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	e := &encoder{
		w:         w,
		pos:       pos,
		scripts:   offsetTable{name: "script"},
		objects:   offsetTable{name: "object"},
		navMeshes: offsetTable{name: "navigation mesh"},
		atlases:   offsetTable{name: "atlas"},
		cluts:     offsetTable{name: "CLUT"},
	}

	if err := e.header(s); err != nil {
		return err
	}
	if err := e.metadata(s); err != nil {
		return err
	}
	if err := e.data(s); err != nil {
		return err
	}

	for _, t := range []*offsetTable{&e.scripts, &e.objects, &e.navMeshes, &e.atlases, &e.cluts} {
		if err := t.backpatch(w); err != nil {
			return err
		}
	}

	_, err = w.Seek(0, io.SeekEnd)
	return err
}
