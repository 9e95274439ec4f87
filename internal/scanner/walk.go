package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	gitignore "github.com/sabhiram/go-gitignore"
)

// WalkOptions controls directory traversal policy.
type WalkOptions struct {
	// IncludeHidden keeps dot-files and dot-directories in the result.
	IncludeHidden bool
	// RespectIgnore honors the root's .gitignore rules.
	RespectIgnore bool
	// MaxDepth bounds traversal depth below the root; zero means unbounded.
	MaxDepth int
}

// DefaultWalkOptions matches the CLI defaults: skip hidden files, honor
// ignore rules, no depth bound.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{RespectIgnore: true}
}

// Walk returns every regular file under root permitted by the options, in
// lexical walk order. Unreadable subtrees are skipped with a warning rather
// than failing the whole walk.
func Walk(root string, opts WalkOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var ignorer *gitignore.GitIgnore
	if opts.RespectIgnore {
		ignorer, err = gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
		if err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("root", root).Msg("Failed to parse .gitignore, ignoring it")
		}
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if !opts.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.MaxDepth > 0 && depthOf(rel) > opts.MaxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func depthOf(rel string) int {
	return strings.Count(rel, string(filepath.Separator)) + 1
}
