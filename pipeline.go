package psxsplash

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/bodgit/psxsplash/vram"
)

// textureKey identifies a converted texture. The same image used at two
// bit depths is two textures.
type textureKey struct {
	path  string
	depth vram.BitDepth
}

func (k textureKey) id() string {
	return fmt.Sprintf("%s@%d", k.path, int(k.depth))
}

type textureJob struct {
	index int
	key   textureKey
}

func (s *Splash) textureJobs(ctx context.Context, keys []textureKey) (<-chan textureJob, <-chan error, error) {
	out := make(chan textureJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, key := range keys {
			select {
			case out <- textureJob{i, key}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc, nil
}

// textureWorker converts each job it receives, storing the texture at the
// job index of textures. Every index is written by exactly one worker.
func (s *Splash) textureWorker(ctx context.Context, in <-chan textureJob, textures []*vram.Texture) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for job := range in {
			t, cached, err := loadTexture(s.cache, job.key.path, job.key.id(), job.key.depth)
			if err != nil {
				errc <- err
				return
			}
			if cached {
				s.logger.Printf("Using cached \"%s\" at %s bits\n", job.key.path, job.key.depth)
			} else {
				s.logger.Printf("Converted \"%s\" at %s bits, %dx%d\n", job.key.path, job.key.depth, t.Width, t.Height)
			}
			textures[job.index] = t
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// loadTextures converts every texture in keys concurrently, returning them
// in the same order
func (s *Splash) loadTextures(ctx context.Context, keys []textureKey) ([]*vram.Texture, error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	textures := make([]*vram.Texture, len(keys))

	var errcList []<-chan error

	jobs, errc, err := s.textureJobs(ctx, keys)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < min(runtime.NumCPU(), len(keys)); i++ {
		errc, err := s.textureWorker(ctx, jobs, textures)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	return textures, nil
}
