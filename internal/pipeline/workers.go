package pipeline

import (
	"context"
	"sync"

	"github.com/albapepper/regatta-data/internal/regatta"
	"github.com/albapepper/regatta-data/internal/source"
)

type built struct {
	build *regatta.Build
	err   error
}

// buildAll loads and builds files with a pool of workers. Output is indexed
// like files, so callers see the same order regardless of scheduling.
func buildAll(ctx context.Context, files []source.ResultFile, workers int) []built {
	out := make([]built, len(files))
	if len(files) == 0 {
		return out
	}

	// Worker pool: one channel of file indexes, N workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	ch := make(chan int, len(files))
	for i := range files {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				if err := ctx.Err(); err != nil {
					out[i] = built{err: err}
					continue
				}
				b, err := buildFile(files[i])
				out[i] = built{build: b, err: err}
			}
		}()
	}
	wg.Wait()
	return out
}
