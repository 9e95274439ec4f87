package clustering

import (
	"runtime"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/reclaim/pkg/fuzzyhash"
	"github.com/thebtf/reclaim/pkg/models"
)

// lshChunkPrefix is how many leading bytes of the first hash chunk feed the
// bucket key. Similar files share a block size and chunk head, so they land
// in the same bucket; dissimilar files rarely collide.
const lshChunkPrefix = 8

// DetectLargeFileClusters clusters records by fuzzy-hash similarity.
// minSimilarity must lie in [50,100]; epsilon is derived as 100-minSimilarity.
// Benign shortfalls (too few records, too few usable hashes) return an empty
// result rather than an error.
func DetectLargeFileClusters(records []models.FileRecord, minSimilarity, minClusterSize int, cmp fuzzyhash.Comparer) ([]models.LargeFileCluster, error) {
	if minSimilarity < 50 || minSimilarity > 100 {
		return nil, &InvalidSimilarityError{Value: minSimilarity}
	}
	if len(records) < minClusterSize {
		return nil, nil
	}

	hashable := make([]models.FileRecord, 0, len(records))
	for _, r := range records {
		if r.HasFuzzyHash() {
			hashable = append(hashable, r)
		}
	}
	if len(hashable) < minClusterSize {
		return nil, nil
	}

	m := BuildDistanceMatrix(hashable, cmp)
	labels := DBSCAN(m, SimilarityToDistance(minSimilarity), minClusterSize)
	return AggregateClusters(hashable, labels, m), nil
}

// ComputeLSHBuckets groups records by a locality-sensitive key derived from
// the hash's block-size field and the head of its first chunk. Records
// without a parseable hash are dropped.
func ComputeLSHBuckets(records []models.FileRecord) map[uint64][]models.FileRecord {
	buckets := make(map[uint64][]models.FileRecord)
	for _, r := range records {
		blockSize, chunk1, _, ok := fuzzyhash.Parts(r.FuzzyHash)
		if !ok {
			continue
		}
		if len(chunk1) > lshChunkPrefix {
			chunk1 = chunk1[:lshChunkPrefix]
		}
		key := xxhash.Sum64String(blockSize + ":" + chunk1)
		buckets[key] = append(buckets[key], r)
	}
	return buckets
}

// DetectClustersBatched clusters large inputs bucket by bucket. Inputs that
// fit in a single batch delegate to DetectLargeFileClusters directly;
// otherwise each LSH bucket is clustered as an isolated sub-problem (buckets
// hold disjoint working sets, so they run in parallel) and clusters sharing
// a file path are merged afterwards.
func DetectClustersBatched(records []models.FileRecord, minSimilarity, minClusterSize, batchSize int, cmp fuzzyhash.Comparer) ([]models.LargeFileCluster, error) {
	if len(records) <= batchSize {
		return DetectLargeFileClusters(records, minSimilarity, minClusterSize, cmp)
	}
	if minSimilarity < 50 || minSimilarity > 100 {
		return nil, &InvalidSimilarityError{Value: minSimilarity}
	}

	buckets := ComputeLSHBuckets(records)
	keys := make([]uint64, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var (
		mu  sync.Mutex
		all []models.LargeFileCluster
	)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, key := range keys {
		bucket := buckets[key]
		if len(bucket) < minClusterSize {
			continue
		}
		g.Go(func() error {
			clusters, err := DetectLargeFileClusters(bucket, minSimilarity, minClusterSize, cmp)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, clusters...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Restore a deterministic order before merging; bucket goroutines
	// append as they finish.
	sort.Slice(all, func(i, j int) bool {
		return all[i].Files[0].Path < all[j].Files[0].Path
	})

	return MergeOverlappingClusters(all), nil
}

// MergeOverlappingClusters unions clusters that share any file path.
// Membership is deduplicated by path and total size is recomputed from the
// union, so a shared file is never counted twice. Cluster ids are reassigned
// in output order.
func MergeOverlappingClusters(clusters []models.LargeFileCluster) []models.LargeFileCluster {
	if len(clusters) == 0 {
		return nil
	}

	merged := make([]models.LargeFileCluster, 0, len(clusters))
	processed := make(set[int], len(clusters))

	for i := range clusters {
		if processed.has(i) {
			continue
		}
		processed.add(i)

		current := clusters[i]
		files := make([]models.FileRecord, len(current.Files))
		copy(files, current.Files)

		paths := make(set[string], len(files))
		for _, f := range files {
			paths.add(f.Path)
		}

		// A merge can make further clusters overlap, so rescan until
		// the membership stops growing.
		for grew := true; grew; {
			grew = false
			for j := i + 1; j < len(clusters); j++ {
				if processed.has(j) {
					continue
				}
				overlap := false
				for _, f := range clusters[j].Files {
					if paths.has(f.Path) {
						overlap = true
						break
					}
				}
				if !overlap {
					continue
				}
				for _, f := range clusters[j].Files {
					if paths.add(f.Path) {
						files = append(files, f)
					}
				}
				processed.add(j)
				grew = true
			}
		}

		var totalSize uint64
		for _, f := range files {
			totalSize += f.SizeBytes
		}

		current.ClusterID = len(merged)
		current.Files = files
		current.TotalSize = totalSize
		merged = append(merged, current)
	}

	return merged
}
