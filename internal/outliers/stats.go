// Package outliers finds statistical and structural storage outliers over a
// scanned set of file records.
package outliers

import (
	"math"
	"sort"

	"github.com/thebtf/reclaim/pkg/models"
)

// DetectLargeFileOutliers flags files whose size z-score exceeds the
// configured threshold. Results are sorted by size descending and truncated
// to TopN when set.
func DetectLargeFileOutliers(records []models.FileRecord, totalSize uint64, opts models.OutlierOptions) []models.LargeFileOutlier {
	if len(records) == 0 {
		return nil
	}

	mean, stdDev := sizeStats(records)

	var found []models.LargeFileOutlier
	for _, r := range records {
		if opts.MinSize > 0 && r.SizeBytes < opts.MinSize {
			continue
		}

		var zScore float64
		if stdDev > 0 {
			zScore = (float64(r.SizeBytes) - mean) / stdDev
		}
		if zScore <= opts.StdDevThreshold {
			continue
		}

		var pct float64
		if totalSize > 0 {
			pct = float64(r.SizeBytes) / float64(totalSize) * 100
		}
		found = append(found, models.LargeFileOutlier{
			Path:              r.Path,
			SizeBytes:         r.SizeBytes,
			SizeMB:            float64(r.SizeBytes) / (1024 * 1024),
			PercentageOfTotal: pct,
			StdDevsFromMean:   zScore,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].SizeBytes != found[j].SizeBytes {
			return found[i].SizeBytes > found[j].SizeBytes
		}
		return found[i].Path < found[j].Path
	})

	if opts.TopN > 0 && len(found) > opts.TopN {
		found = found[:opts.TopN]
	}
	return found
}

// sizeStats returns the population mean and standard deviation of sizes.
func sizeStats(records []models.FileRecord) (mean, stdDev float64) {
	n := float64(len(records))

	var sum float64
	for _, r := range records {
		sum += float64(r.SizeBytes)
	}
	mean = sum / n

	var variance float64
	for _, r := range records {
		diff := float64(r.SizeBytes) - mean
		variance += diff * diff
	}
	variance /= n

	return mean, math.Sqrt(variance)
}
