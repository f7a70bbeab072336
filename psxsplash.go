/*
Package psxsplash is a library for exporting 3D scenes to a single binary
file that can be loaded by a PlayStation runtime.

A scene is described by a YAML manifest listing objects, navigation meshes,
Lua scripts and the VRAM layout. Exporting packs every texture into VRAM
around the framebuffers, converts geometry to fixed-point and writes the
result in one pass over the output file.
*/
package psxsplash

import "log"

// Splash exports scenes. A Splash holds no per-export state so it may be
// reused, but a single export must not be shared between goroutines.
type Splash struct {
	cache  *Cache
	logger *log.Logger

	// Progress, if set, receives an event as each export stage advances
	Progress ProgressFunc
}

// New returns a Splash using the optional texture cache
func New(cache *Cache, logger *log.Logger) *Splash {
	return &Splash{
		cache:  cache,
		logger: logger,
	}
}

func (s *Splash) progress(stage Stage, index, total int) {
	if s.Progress != nil {
		s.Progress(Progress{stage, index, total})
	}
}
