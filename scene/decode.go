package scene

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Index is the header and metadata section of a scene file
type Index struct {
	Header    Header
	Scripts   []ScriptRecord
	Objects   []ObjectRecord
	NavMeshes []NavMeshRecord
	Atlases   []AtlasRecord
	Cluts     []ClutRecord
}

func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, err
	}
	if h.Magic != Magic {
		return Header{}, ErrBadMagic
	}
	return h, nil
}

// Decode reads the header and every metadata record from r
func Decode(r io.Reader) (*Index, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		Header:    h,
		Scripts:   make([]ScriptRecord, h.Scripts),
		Objects:   make([]ObjectRecord, h.Objects),
		NavMeshes: make([]NavMeshRecord, h.NavMeshes),
		Atlases:   make([]AtlasRecord, h.Atlases),
		Cluts:     make([]ClutRecord, h.Cluts),
	}

	for _, v := range []interface{}{idx.Scripts, idx.Objects, idx.NavMeshes, idx.Atlases, idx.Cluts} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Triangles reads the triangle payload of object i
func (idx *Index) Triangles(r io.ReadSeeker, i int) ([]TriangleRecord, error) {
	if i < 0 || i >= len(idx.Objects) {
		return nil, fmt.Errorf("scene: no object %d", i)
	}
	o := idx.Objects[i]
	if _, err := r.Seek(int64(o.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	t := make([]TriangleRecord, o.Triangles)
	if err := binary.Read(r, binary.LittleEndian, t); err != nil {
		return nil, err
	}
	return t, nil
}
