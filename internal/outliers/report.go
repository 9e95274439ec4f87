package outliers

import (
	"github.com/rs/zerolog/log"

	"github.com/thebtf/reclaim/pkg/clustering"
	"github.com/thebtf/reclaim/pkg/fuzzyhash"
	"github.com/thebtf/reclaim/pkg/models"
)

// defaultClusterMinSize keeps clustering focused on large files when the
// caller sets no explicit floor.
const defaultClusterMinSize = 1024 * 1024

// BuildReport runs every enabled detector over the record set and packages
// the results. Totals are computed once over the full input. Clustering
// failures degrade to an empty cluster list; the statistical detectors are
// pure and cannot fail.
func BuildReport(records []models.FileRecord, opts models.OutlierOptions, cmp fuzzyhash.Comparer) models.OutlierReport {
	report := models.OutlierReport{
		TotalSizeAnalyzed:  models.TotalSize(records),
		TotalFilesAnalyzed: len(records),
	}
	if len(records) == 0 {
		return report
	}

	report.LargeFiles = DetectLargeFileOutliers(records, report.TotalSizeAnalyzed, opts)

	if opts.CheckHiddenConsumers {
		report.HiddenConsumers = DetectHiddenConsumers(records)
	}
	if opts.CheckPatterns {
		report.PatternGroups = DetectPatternGroups(records)
	}

	if opts.EnableClustering {
		report.LargeFileClusters = clusterLargeFiles(records, opts, cmp)
	}

	return report
}

// clusterLargeFiles selects clustering candidates and runs the batched
// detector. Only files carrying a fuzzy hash and meeting the size floor
// qualify.
func clusterLargeFiles(records []models.FileRecord, opts models.OutlierOptions, cmp fuzzyhash.Comparer) []models.LargeFileCluster {
	floor := opts.MinSize
	if floor == 0 {
		floor = defaultClusterMinSize
	}

	candidates := make([]models.FileRecord, 0, len(records))
	for _, r := range records {
		if r.HasFuzzyHash() && r.SizeBytes >= floor {
			candidates = append(candidates, r)
		}
	}

	clusters, err := clustering.DetectClustersBatched(
		candidates,
		opts.ClusterSimilarity,
		opts.MinClusterSize,
		opts.BatchSize,
		cmp,
	)
	if err != nil {
		log.Warn().Err(err).Int("candidates", len(candidates)).Msg("Clustering failed, omitting clusters from report")
		return nil
	}
	return clusters
}
