package outliers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/reclaim/pkg/models"
)

func record(path string, size uint64) models.FileRecord {
	return models.FileRecord{Path: path, SizeBytes: size}
}

func TestDetectLargeFileOutliers_SingleGiantFile(t *testing.T) {
	var records []models.FileRecord
	for i := 0; i < 9; i++ {
		records = append(records, record(fmt.Sprintf("small-%d.dat", i), 10_000))
	}
	records = append(records, record("giant.dat", 1_000_000))

	opts := models.OutlierOptions{StdDevThreshold: 1.5}
	found := DetectLargeFileOutliers(records, models.TotalSize(records), opts)

	require.Len(t, found, 1)
	assert.Equal(t, "giant.dat", found[0].Path)
	assert.Greater(t, found[0].StdDevsFromMean, 1.5)
	assert.InDelta(t, 91.7, found[0].PercentageOfTotal, 0.1)
}

func TestDetectLargeFileOutliers_UniformSizesFindNothing(t *testing.T) {
	var records []models.FileRecord
	for i := 0; i < 5; i++ {
		records = append(records, record(fmt.Sprintf("f%d", i), 4096))
	}

	// Zero standard deviation must not divide by zero; z-scores are 0.
	found := DetectLargeFileOutliers(records, models.TotalSize(records), models.OutlierOptions{StdDevThreshold: 2.0})

	assert.Empty(t, found)
}

func TestDetectLargeFileOutliers_MinSizeFilter(t *testing.T) {
	records := []models.FileRecord{
		record("tiny-spike.dat", 50_000),
		record("a", 100), record("b", 100), record("c", 100),
		record("d", 100), record("e", 100), record("f", 100),
	}

	opts := models.OutlierOptions{StdDevThreshold: 1.0, MinSize: 100_000}
	found := DetectLargeFileOutliers(records, models.TotalSize(records), opts)

	assert.Empty(t, found, "outliers below the size floor are excluded")
}

func TestDetectLargeFileOutliers_TopNTruncation(t *testing.T) {
	var records []models.FileRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("small-%02d", i), 1_000))
	}
	for i := 0; i < 5; i++ {
		records = append(records, record(fmt.Sprintf("big-%d", i), uint64(5_000_000+i*1_000)))
	}

	opts := models.OutlierOptions{StdDevThreshold: 1.0, TopN: 3}
	found := DetectLargeFileOutliers(records, models.TotalSize(records), opts)

	require.Len(t, found, 3)
	// Sorted by size descending.
	assert.Equal(t, "big-4", found[0].Path)
	assert.Equal(t, "big-3", found[1].Path)
	assert.Equal(t, "big-2", found[2].Path)
}

func TestDetectLargeFileOutliers_EmptyInput(t *testing.T) {
	assert.Empty(t, DetectLargeFileOutliers(nil, 0, models.DefaultOutlierOptions()))
}
