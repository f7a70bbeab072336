/*
Package scene implements the binary scene file read by the console runtime.

The file starts with a fixed 32 byte header followed by a metadata section
containing one fixed size record per script, object, navigation mesh,
texture atlas and CLUT, in that order. Each record begins with the file
offset of the variable length data it describes. The data sections follow
in the same order, each payload aligned to four bytes. All values are
little-endian.

Because payload offsets are not known while the metadata is written, the
encoder writes zero placeholders, records their position, and patches them
once every payload has been written.
*/
package scene

import (
	"errors"

	"github.com/bodgit/psxsplash/vram"
)

// Version is the file format version written in the header
const Version = 1

// Magic identifies a scene file
var Magic = [2]byte{'S', 'P'}

var (
	// ErrOffsetTableMismatch indicates the number of placeholders written
	// for a collection differs from the number of payloads. It is always
	// an internal sequencing bug.
	ErrOffsetTableMismatch = errors.New("scene: offset table mismatch")
	// ErrBadMagic is returned when decoding something that isn't a scene
	ErrBadMagic = errors.New("scene: bad magic")
)

// NoScript is the script index used when nothing is attached
const NoScript = -1

type Script struct {
	Name   string
	Source []byte
}

type Vertex struct {
	Position [3]int16
	Normal   [3]int16
	Color    [3]uint8
	// UV is relative to the origin of the texture itself
	UV [2]uint8
}

// Triangle is a textured triangle. Only the normal of the first vertex is
// written.
type Triangle struct {
	Vertices [3]Vertex
	Texture  *vram.Placement
}

// Object is a renderable object with its world transform in fixed-point
type Object struct {
	Name      string
	Position  [3]int32
	Rotation  [3][3]int32
	Triangles []Triangle
	Script    int
	Active    bool
}

type NavMesh struct {
	Triangles [][3][3]int32
}

type Player struct {
	Position [3]int16
	Rotation [3]int16
	Height   int16
}

// Scene is everything written to a scene file
type Scene struct {
	Scripts     []Script
	Objects     []Object
	NavMeshes   []NavMesh
	Atlases     []*vram.Atlas
	Cluts       []*vram.Clut
	Player      Player
	SceneScript int
}

// Header is the fixed header at the start of the file
type Header struct {
	Magic          [2]byte
	Version        uint16
	Scripts        uint16
	Objects        uint16
	NavMeshes      uint16
	Atlases        uint16
	Cluts          uint16
	PlayerPosition [3]int16
	PlayerRotation [3]int16
	PlayerHeight   int16
	SceneScript    int16
	_              uint16
}

type ScriptRecord struct {
	Offset int32
	Length uint32
}

// ObjectRecord describes an object and its triangle payload
type ObjectRecord struct {
	Offset    int32
	Position  [3]int32
	Rotation  [9]int32
	Triangles uint16
	Script    int16
	Flags     int32
}

// Active reports whether the object starts enabled
func (o ObjectRecord) Active() bool {
	return o.Flags&flagActive != 0
}

const flagActive = 1 << 0

type NavMeshRecord struct {
	Offset    int32
	Triangles uint16
	_         uint16
}

type AtlasRecord struct {
	Offset int32
	Width  uint16
	Height uint16
	X      uint16
	Y      uint16
}

type ClutRecord struct {
	Offset int32
	X      uint16
	Y      uint16
	Colors uint16
	_      uint16
}

// TriangleRecord is a single 52 byte triangle in an object payload
type TriangleRecord struct {
	Positions [3][3]int16
	Normal    [3]int16
	Colors    [3][4]uint8
	UVs       [3][2]uint8
	_         uint16
	Tpage     uint16
	ClutX     uint16
	ClutY     uint16
	_         uint16
}

// Texture page attribute bits
const (
	tpagePageX     = 0x000f
	tpagePageY     = 0x0010
	tpageColorMode = 7
	tpageDither    = 1 << 9
)

func tpage(p *vram.Placement) uint16 {
	v := uint16(p.TexpageX) & tpagePageX
	if p.TexpageY != 0 {
		v |= tpagePageY
	}
	v |= uint16(p.Depth.ColorMode()) << tpageColorMode
	return v | tpageDither
}
