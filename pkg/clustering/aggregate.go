package clustering

import (
	"sort"

	"github.com/thebtf/reclaim/pkg/models"
)

// denseDistance is the distance below which a member pair counts toward
// cluster density (similarity above 70).
const denseDistance = 30.0

// AggregateClusters groups labeled indices into cluster summaries. Clusters
// are emitted in ascending id order, so repeated calls over the same labels
// and matrix produce identical output.
func AggregateClusters(records []models.FileRecord, labels []int, m *Matrix) []models.LargeFileCluster {
	groups := make(map[int][]int)
	for idx, label := range labels {
		if label != Noise {
			groups[label] = append(groups[label], idx)
		}
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	clusters := make([]models.LargeFileCluster, 0, len(ids))
	for _, id := range ids {
		clusters = append(clusters, buildClusterInfo(id, groups[id], records, m))
	}
	return clusters
}

func buildClusterInfo(clusterID int, indices []int, records []models.FileRecord, m *Matrix) models.LargeFileCluster {
	files := make([]models.FileRecord, 0, len(indices))
	var totalSize uint64
	for _, idx := range indices {
		files = append(files, records[idx])
		totalSize += records[idx].SizeBytes
	}

	return models.LargeFileCluster{
		ClusterID:     clusterID,
		Files:         files,
		TotalSize:     totalSize,
		AvgSimilarity: avgSimilarity(indices, m),
		Density:       density(indices, m),
	}
}

// avgSimilarity is the mean of 100-distance over all unordered member pairs.
func avgSimilarity(indices []int, m *Matrix) float64 {
	if len(indices) <= 1 {
		return 100.0
	}

	var total float64
	var count int
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			total += 100.0 - m.At(indices[i], indices[j])
			count++
		}
	}
	return total / float64(count)
}

// density is the fraction of member pairs closer than denseDistance.
func density(indices []int, m *Matrix) float64 {
	if len(indices) <= 1 {
		return 1.0
	}

	maxEdges := len(indices) * (len(indices) - 1) / 2
	var edges int
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if m.At(indices[i], indices[j]) < denseDistance {
				edges++
			}
		}
	}
	return float64(edges) / float64(maxEdges)
}
