// Package fuzzyhash wraps the ssdeep context-triggered piecewise hash used
// for file similarity scoring.
package fuzzyhash

import (
	"fmt"
	"strings"

	"github.com/glaslos/ssdeep"
)

// Comparer scores the similarity of two fuzzy hashes on a 0-100 scale,
// where 100 means identical content.
type Comparer interface {
	Compare(a, b string) (int, error)
}

// SSDeep is the default Comparer backed by the ssdeep algorithm.
type SSDeep struct{}

// Compare returns the ssdeep match score for two hashes.
func (SSDeep) Compare(a, b string) (int, error) {
	score, err := ssdeep.Distance(a, b)
	if err != nil {
		return 0, fmt.Errorf("compare fuzzy hashes: %w", err)
	}
	return score, nil
}

// HashFile computes the fuzzy hash of the file at path.
func HashFile(path string) (string, error) {
	h, err := ssdeep.FuzzyFilename(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return h, nil
}

// HashBytes computes the fuzzy hash of an in-memory blob.
func HashBytes(data []byte) (string, error) {
	h, err := ssdeep.FuzzyBytes(data)
	if err != nil {
		return "", fmt.Errorf("hash bytes: %w", err)
	}
	return h, nil
}

// Parts splits a hash into its blocksize, chunk1 and chunk2 fields.
// The wire format is "<blocksize>:<chunk1>:<chunk2>".
func Parts(hash string) (blockSize, chunk1, chunk2 string, ok bool) {
	fields := strings.SplitN(hash, ":", 3)
	if len(fields) < 3 {
		return "", "", "", false
	}
	return fields[0], fields[1], fields[2], true
}
