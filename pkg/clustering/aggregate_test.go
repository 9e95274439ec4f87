package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/reclaim/pkg/models"
)

func TestAggregateClusters_Statistics(t *testing.T) {
	records := []models.FileRecord{
		record("a.bin", 1000, "3:a:a"),
		record("b.bin", 2000, "3:b:b"),
		record("c.bin", 3000, "3:c:c"),
	}
	m := NewMatrix(3)
	m.set(0, 1, 20) // 80% similar
	m.set(0, 2, 30) // 70% similar
	m.set(1, 2, 10) // 90% similar
	labels := []int{0, 0, 0}

	clusters := AggregateClusters(records, labels, m)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, 0, c.ClusterID)
	assert.Len(t, c.Files, 3)
	assert.Equal(t, uint64(6000), c.TotalSize)
	assert.InDelta(t, 80.0, c.AvgSimilarity, 0.001)
	// Pairs under distance 30: (0,1) and (1,2) out of 3.
	assert.InDelta(t, 2.0/3.0, c.Density, 0.001)
}

func TestAggregateClusters_SingletonDefaults(t *testing.T) {
	records := []models.FileRecord{record("solo.bin", 4096, "3:s:s")}
	m := NewMatrix(1)

	clusters := AggregateClusters(records, []int{0}, m)
	require.Len(t, clusters, 1)

	assert.Equal(t, 100.0, clusters[0].AvgSimilarity)
	assert.Equal(t, 1.0, clusters[0].Density)
}

func TestAggregateClusters_IgnoresNoise(t *testing.T) {
	records := []models.FileRecord{
		record("a.bin", 1000, "3:a:a"),
		record("b.bin", 2000, "3:b:b"),
		record("noise.bin", 9000, "3:n:n"),
	}
	m := NewMatrix(3)
	m.set(0, 1, 10)
	m.set(0, 2, 90)
	m.set(1, 2, 90)

	clusters := AggregateClusters(records, []int{0, 0, Noise}, m)
	require.Len(t, clusters, 1)
	assert.Equal(t, uint64(3000), clusters[0].TotalSize)
}

func TestAggregateClusters_Idempotent(t *testing.T) {
	records := []models.FileRecord{
		record("a.bin", 1000, "3:a:a"),
		record("b.bin", 2000, "3:b:b"),
		record("c.bin", 3000, "3:c:c"),
		record("d.bin", 4000, "3:d:d"),
	}
	m := twoPairMatrix()
	labels := []int{0, 0, 1, 1}

	first := AggregateClusters(records, labels, m)
	second := AggregateClusters(records, labels, m)

	require.Equal(t, first, second, "aggregation must be a pure function of its inputs")
	// Sorted by cluster id ascending.
	assert.Equal(t, 0, first[0].ClusterID)
	assert.Equal(t, 1, first[1].ClusterID)
}
