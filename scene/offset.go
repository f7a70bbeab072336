package scene

import (
	"encoding/binary"
	"fmt"
	"io"
)

// offsetTable pairs the file position of each placeholder with the offset
// of the payload it should point at. Both are appended in element order.
type offsetTable struct {
	name         string
	placeholders []int64
	offsets      []int64
}

func (t *offsetTable) placeholder(pos int64) {
	t.placeholders = append(t.placeholders, pos)
}

func (t *offsetTable) resolve(pos int64) {
	t.offsets = append(t.offsets, pos)
}

// backpatch overwrites every placeholder with its resolved offset
func (t *offsetTable) backpatch(w io.WriteSeeker) error {
	if len(t.placeholders) != len(t.offsets) {
		return fmt.Errorf("%w: %d %s placeholders, %d payloads", ErrOffsetTableMismatch, len(t.placeholders), t.name, len(t.offsets))
	}

	var b [4]byte
	for i, pos := range t.placeholders {
		if _, err := w.Seek(pos, io.SeekStart); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b[:], uint32(int32(t.offsets[i])))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}
