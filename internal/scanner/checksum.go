package scanner

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// Checksums hashes file contents with BLAKE2b-256 and groups paths by
// digest. Files that cannot be read are skipped. The resulting map is the
// input for exact-duplicate grouping.
func Checksums(ctx context.Context, paths []string) map[string][]string {
	var mu sync.Mutex
	groups := make(map[string][]string)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			sum, err := checksumFile(path)
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable file during checksum")
				return nil
			}

			mu.Lock()
			groups[sum] = append(groups[sum], path)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return groups
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
