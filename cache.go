package psxsplash

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/bodgit/psxsplash/texture"
	"github.com/bodgit/psxsplash/vram"
	_ "github.com/mattn/go-sqlite3"
)

// Cache remembers converted textures between exports, keyed by the SHA1 of
// the source image and the bit depth
type Cache struct {
	db *sql.DB
}

// NewCache opens or creates the cache database in file
func NewCache(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS texture (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, depth INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, pixels BLOB NOT NULL, UNIQUE(sha1, depth))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db: db,
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Count() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM texture").Scan(&n)
	return n, err
}

func encodePixels(p []vram.Color) []byte {
	b := make([]byte, len(p)*2)
	for i, c := range p {
		binary.LittleEndian.PutUint16(b[i*2:], c.Pack())
	}
	return b
}

func decodePixels(b []byte) []vram.Color {
	p := make([]vram.Color, len(b)/2)
	for i := range p {
		p[i] = vram.Unpack(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return p
}

func (c *Cache) find(sha string, id string, depth vram.BitDepth) (*vram.Texture, error) {
	t := &vram.Texture{ID: id, Depth: depth}
	var pixels []byte
	switch err := c.db.QueryRow("SELECT width, height, pixels FROM texture WHERE sha1 = ? AND depth = ?", sha, int(depth)).Scan(&t.Width, &t.Height, &pixels); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if len(pixels) != t.Width*t.Height*2 {
			return nil, errors.New("cache: corrupt texture entry")
		}
		t.Pixels = decodePixels(pixels)
		return t, nil
	default:
		return nil, err
	}
}

func (c *Cache) add(sha string, t *vram.Texture) error {
	if _, err := c.db.Exec("INSERT OR IGNORE INTO texture (sha1, depth, width, height, pixels) VALUES (?, ?, ?, ?, ?)", sha, int(t.Depth), t.Width, t.Height, encodePixels(t.Pixels)); err != nil {
		return err
	}
	return nil
}

// loadTexture converts the image in file, going through the cache if
// there is one
func loadTexture(c *Cache, file, id string, depth vram.BitDepth) (*vram.Texture, bool, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, false, err
	}
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	if c != nil {
		t, err := c.find(sha, id, depth)
		if err != nil {
			return nil, false, err
		}
		if t != nil {
			return t, true, nil
		}
	}

	m, err := texture.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", file, err)
	}

	t, err := texture.Convert(id, m, depth)
	if err != nil {
		return nil, false, err
	}

	if c != nil {
		if err := c.add(sha, t); err != nil {
			return nil, false, err
		}
	}

	return t, false, nil
}
