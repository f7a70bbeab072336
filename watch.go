package psxsplash

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// Editors often write a file in several steps so changes are collected for
// this long before exporting
const settle = 250 * time.Millisecond

// watchSet returns the manifest and every file it refers to, along with
// the directories containing them
func watchSet(manifest string, m *Manifest) (map[string]bool, map[string]bool, error) {
	files := map[string]bool{manifest: true}
	if m != nil {
		list, err := m.Files()
		if err != nil {
			return nil, nil, err
		}
		for _, f := range list {
			files[f] = true
		}
	}

	dirs := make(map[string]bool)
	for f := range files {
		dirs[filepath.Dir(f)] = true
	}

	return files, dirs, nil
}

// Watch exports the scene in manifest to out, then again each time the
// manifest or a file it refers to changes, until ctx is cancelled. Failed
// exports are logged and do not stop the watch.
func (s *Splash) Watch(ctx context.Context, manifest, out string) error {
	manifest, err := homedir.Expand(manifest)
	if err != nil {
		return err
	}
	if manifest, err = filepath.Abs(manifest); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watching := make(map[string]bool)
	var files map[string]bool

	export := func() error {
		m, err := LoadManifest(manifest)
		if err != nil {
			s.logger.Println(err)
		} else if err = s.Export(ctx, m, out); err != nil {
			s.logger.Println(err)
		}

		// Keep watching the last known set of files if the manifest is broken
		set, dirs, err := watchSet(manifest, m)
		if err != nil {
			return err
		}
		if m != nil || files == nil {
			files = set
		}
		for dir := range dirs {
			if watching[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				return err
			}
			watching[dir] = true
		}
		return nil
	}

	if err := export(); err != nil {
		return err
	}

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
				continue
			}
			s.logger.Printf("Changed \"%s\"\n", event.Name)
			timer = time.After(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer:
			timer = nil
			if err := export(); err != nil {
				return err
			}
		}
	}
}
