package clustering

// Noise marks an index that belongs to no cluster.
const Noise = -1

// DBSCAN assigns a cluster id to every matrix index, or Noise for points
// that are neither core nor reachable from one. Indices are processed in
// ascending order and ids are handed out in discovery order starting at 0,
// so the labeling is deterministic for a fixed matrix.
func DBSCAN(m *Matrix, epsilon float64, minPoints int) []int {
	n := m.Len()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	clusterID := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := m.neighborhood(i, epsilon)
		if len(neighbors) < minPoints {
			// Tentatively noise; a later expansion may still claim it
			// as a border point.
			continue
		}

		labels[i] = clusterID
		expandCluster(m, neighbors, clusterID, epsilon, minPoints, labels, visited)
		clusterID++
	}

	return labels
}

// expandCluster grows a cluster from the seed neighborhood using an explicit
// worklist instead of recursion. Each seed is processed at most once; new
// seeds are appended only when a core point contributes unseen neighbors, so
// the loop terminates. A border point is claimed by whichever cluster's
// expansion reaches it first; labels are never overwritten.
func expandCluster(m *Matrix, seeds []int, clusterID int, epsilon float64, minPoints int, labels []int, visited []bool) {
	seen := make(set[int], len(seeds))
	for _, s := range seeds {
		seen.add(s)
	}

	for i := 0; i < len(seeds); i++ {
		q := seeds[i]

		if !visited[q] {
			visited[q] = true
			qNeighbors := m.neighborhood(q, epsilon)
			if len(qNeighbors) >= minPoints {
				for _, nb := range qNeighbors {
					if seen.add(nb) {
						seeds = append(seeds, nb)
					}
				}
			}
		}

		if labels[q] == Noise {
			labels[q] = clusterID
		}
	}
}
