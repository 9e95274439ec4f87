package scanner

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/reclaim/pkg/fuzzyhash"
	"github.com/thebtf/reclaim/pkg/models"
)

// CollectOptions controls metadata collection and fuzzy hashing.
type CollectOptions struct {
	// EnableFuzzyHash computes an ssdeep hash for eligible files.
	EnableFuzzyHash bool
	// HashMinSize and HashMaxSize bound fuzzy-hash eligibility. Files
	// outside the window get a record without a hash.
	HashMinSize uint64
	HashMaxSize uint64
	// Progress, when set, is called after each file with (done, total).
	Progress func(done, total int)
}

// DefaultCollectOptions hashes files between 1 MiB and 1 GiB.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{
		HashMinSize: 1024 * 1024,
		HashMaxSize: 1024 * 1024 * 1024,
	}
}

// Collect stats every path and produces one immutable FileRecord per
// readable file, hashing in parallel. A file whose metadata or hash cannot
// be read degrades to a hashless record (or is dropped when even stat
// fails); a single bad file never aborts the scan.
func Collect(ctx context.Context, paths []string, opts CollectOptions) []models.FileRecord {
	records := make([]models.FileRecord, len(paths))
	keep := make([]bool, len(paths))

	var done atomic.Int64
	total := len(paths)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable file")
				return nil
			}

			rec := models.FileRecord{
				Path:      path,
				SizeBytes: uint64(info.Size()),
			}
			if opts.EnableFuzzyHash && hashEligible(rec.SizeBytes, opts) {
				hash, hashErr := fuzzyhash.HashFile(path)
				if hashErr != nil {
					log.Debug().Err(hashErr).Str("path", path).Msg("Fuzzy hash failed, keeping record without one")
				} else {
					rec.FuzzyHash = hash
				}
			}

			records[i] = rec
			keep[i] = true

			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.FileRecord, 0, len(paths))
	for i, ok := range keep {
		if ok {
			out = append(out, records[i])
		}
	}
	return out
}

func hashEligible(size uint64, opts CollectOptions) bool {
	if size < opts.HashMinSize {
		return false
	}
	if opts.HashMaxSize > 0 && size > opts.HashMaxSize {
		return false
	}
	return true
}
