package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPairMatrix builds the canonical 4-point matrix: (0,1) and (2,3) are
// close, all cross pairs are far apart.
func twoPairMatrix() *Matrix {
	m := NewMatrix(4)
	m.set(0, 1, 10)
	m.set(2, 3, 10)
	for _, pair := range [][2]int{{0, 2}, {0, 3}, {1, 2}, {1, 3}} {
		m.set(pair[0], pair[1], 90)
	}
	return m
}

func TestDBSCAN_TwoClusters(t *testing.T) {
	labels := DBSCAN(twoPairMatrix(), 20, 2)
	require.Len(t, labels, 4)

	for i, label := range labels {
		assert.NotEqual(t, Noise, label, "point %d should be clustered", i)
	}
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[2], labels[3])
	assert.NotEqual(t, labels[0], labels[2])
}

func TestDBSCAN_AllNoise(t *testing.T) {
	m := NewMatrix(3)
	m.set(0, 1, 90)
	m.set(0, 2, 90)
	m.set(1, 2, 90)

	labels := DBSCAN(m, 20, 2)

	for _, label := range labels {
		assert.Equal(t, Noise, label)
	}
}

func TestDBSCAN_SinglePointClusterWithMinPointsOne(t *testing.T) {
	m := NewMatrix(2)
	m.set(0, 1, 90)

	labels := DBSCAN(m, 20, 1)

	// Every point is its own core point when minPoints is 1.
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[1])
}

func TestDBSCAN_DeterministicIDOrder(t *testing.T) {
	first := DBSCAN(twoPairMatrix(), 20, 2)
	second := DBSCAN(twoPairMatrix(), 20, 2)

	assert.Equal(t, first, second)
	// Ids are assigned in discovery order: index 0's cluster is 0.
	assert.Equal(t, 0, first[0])
	assert.Equal(t, 1, first[2])
}

// farMatrix builds an n by n matrix with every off-diagonal pair at
// distance 90; tests then pull selected pairs close.
func farMatrix(n int) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.set(i, j, 90)
		}
	}
	return m
}

func TestDBSCAN_BorderPointClaimedByFirstExpansion(t *testing.T) {
	// Two dense groups {0..3} and {5..8}; point 4 sits within epsilon of
	// one member of each but has only 3 neighbors, so it is never core.
	// The cluster discovered first (from index 0) claims it.
	m := farMatrix(9)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			m.set(i, j, 5)
		}
	}
	for i := 5; i < 9; i++ {
		for j := i + 1; j < 9; j++ {
			m.set(i, j, 5)
		}
	}
	m.set(0, 4, 15)
	m.set(5, 4, 15)

	labels := DBSCAN(m, 20, 4)

	require.NotEqual(t, Noise, labels[4])
	assert.Equal(t, labels[0], labels[4], "first expansion claims the border point")
	assert.NotEqual(t, labels[5], labels[4])
}
