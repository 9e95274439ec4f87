// Package clustering detects groups of near-duplicate files by running
// DBSCAN over pairwise fuzzy-hash distances, with LSH bucketing for large
// inputs.
package clustering

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/thebtf/reclaim/pkg/fuzzyhash"
	"github.com/thebtf/reclaim/pkg/models"
)

// Matrix is a symmetric pairwise distance matrix over file indices, stored
// as one contiguous buffer addressed by integer index.
type Matrix struct {
	n     int
	cells []float64
}

// NewMatrix returns a zeroed n by n matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, cells: make([]float64, n*n)}
}

// Len returns the number of rows (and columns).
func (m *Matrix) Len() int { return m.n }

// At returns the distance between indices i and j.
func (m *Matrix) At(i, j int) float64 { return m.cells[i*m.n+j] }

// set writes a distance into both triangles.
func (m *Matrix) set(i, j int, v float64) {
	m.cells[i*m.n+j] = v
	m.cells[j*m.n+i] = v
}

// neighborhood returns all indices within epsilon of i, including i itself.
func (m *Matrix) neighborhood(i int, epsilon float64) []int {
	var out []int
	for j := 0; j < m.n; j++ {
		if m.At(i, j) <= epsilon {
			out = append(out, j)
		}
	}
	return out
}

// SimilarityToDistance converts a 0-100 similarity score to a distance,
// where 0 means identical and 100 means completely dissimilar.
func SimilarityToDistance(similarity int) float64 {
	return 100 - float64(similarity)
}

// BuildDistanceMatrix computes the pairwise distance matrix for records.
// Rows of the upper triangle are distributed across workers; the cell (i,j)
// is written only by the worker owning min(i,j), so writes never collide.
// Pairs whose hashes are missing or cannot be compared score similarity 0.
// A nil comparer defaults to ssdeep.
func BuildDistanceMatrix(records []models.FileRecord, cmp fuzzyhash.Comparer) *Matrix {
	if cmp == nil {
		cmp = fuzzyhash.SSDeep{}
	}
	n := len(records)
	m := NewMatrix(n)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			for j := i + 1; j < n; j++ {
				sim := compareSafe(records[i], records[j], cmp)
				m.set(i, j, SimilarityToDistance(sim))
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail; comparison errors degrade to similarity 0

	return m
}

// compareSafe scores two records, treating any per-pair failure as
// completely dissimilar rather than aborting the matrix build.
func compareSafe(a, b models.FileRecord, cmp fuzzyhash.Comparer) int {
	if !a.HasFuzzyHash() || !b.HasFuzzyHash() {
		return 0
	}
	sim, err := cmp.Compare(a.FuzzyHash, b.FuzzyHash)
	if err != nil || sim < 0 {
		return 0
	}
	if sim > 100 {
		return 100
	}
	return sim
}
