package outliers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/reclaim/pkg/models"
)

// pairComparer scores 95 for records sharing a hash, 0 otherwise.
type pairComparer struct{}

func (pairComparer) Compare(a, b string) (int, error) {
	if a == b {
		return 95, nil
	}
	return 0, nil
}

func TestBuildReport_EmptyInput(t *testing.T) {
	report := BuildReport(nil, models.DefaultOutlierOptions(), pairComparer{})

	assert.Zero(t, report.TotalFilesAnalyzed)
	assert.Zero(t, report.TotalSizeAnalyzed)
	assert.Empty(t, report.LargeFiles)
	assert.Empty(t, report.LargeFileClusters)
}

func TestBuildReport_Totals(t *testing.T) {
	records := []models.FileRecord{
		record("a.dat", 1000),
		record("b.dat", 2000),
	}

	report := BuildReport(records, models.DefaultOutlierOptions(), pairComparer{})

	assert.Equal(t, 2, report.TotalFilesAnalyzed)
	assert.Equal(t, uint64(3000), report.TotalSizeAnalyzed)
}

func TestBuildReport_DetectorToggles(t *testing.T) {
	records := []models.FileRecord{
		record(p("proj", "node_modules", "dep.js"), 500_000),
		record("series-01.log", 1000),
		record("series-02.log", 1000),
		record("series-03.log", 1000),
	}

	opts := models.DefaultOutlierOptions()
	opts.CheckHiddenConsumers = false
	opts.CheckPatterns = false

	report := BuildReport(records, opts, pairComparer{})
	assert.Empty(t, report.HiddenConsumers)
	assert.Empty(t, report.PatternGroups)

	opts.CheckHiddenConsumers = true
	opts.CheckPatterns = true
	report = BuildReport(records, opts, pairComparer{})
	assert.Len(t, report.HiddenConsumers, 1)
	assert.Len(t, report.PatternGroups, 1)
}

func TestBuildReport_ClusteringOnlyWhenEnabled(t *testing.T) {
	var records []models.FileRecord
	for i := 0; i < 4; i++ {
		records = append(records, models.FileRecord{
			Path:      fmt.Sprintf("vm-disk-%d.img", i),
			SizeBytes: 8 * 1024 * 1024,
			FuzzyHash: "196608:sharedchunk:tail",
		})
	}

	opts := models.DefaultOutlierOptions()
	report := BuildReport(records, opts, pairComparer{})
	assert.Empty(t, report.LargeFileClusters)

	opts.EnableClustering = true
	report = BuildReport(records, opts, pairComparer{})
	require.Len(t, report.LargeFileClusters, 1)
	assert.Len(t, report.LargeFileClusters[0].Files, 4)
}

func TestBuildReport_ClusteringSizeFloor(t *testing.T) {
	records := []models.FileRecord{
		{Path: "small-a", SizeBytes: 10, FuzzyHash: "3:x:y"},
		{Path: "small-b", SizeBytes: 10, FuzzyHash: "3:x:y"},
	}

	opts := models.DefaultOutlierOptions()
	opts.EnableClustering = true

	// Both files sit below the default 1 MiB clustering floor.
	report := BuildReport(records, opts, pairComparer{})
	assert.Empty(t, report.LargeFileClusters)

	opts.MinSize = 1
	report = BuildReport(records, opts, pairComparer{})
	assert.Len(t, report.LargeFileClusters, 1)
}
