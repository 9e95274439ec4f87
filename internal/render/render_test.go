package render

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/reclaim/internal/dedupe"
	"github.com/thebtf/reclaim/pkg/models"
)

func sampleReport() *models.OutlierReport {
	return &models.OutlierReport{
		LargeFiles: []models.LargeFileOutlier{
			{Path: "/data/big.iso", SizeBytes: 4 << 30, SizeMB: 4096, PercentageOfTotal: 80, StdDevsFromMean: 3.1},
		},
		HiddenConsumers: []models.HiddenConsumer{
			{Path: "/src/node_modules", PatternType: "node_modules", TotalSizeBytes: 512 << 20, FileCount: 30000, Recommendation: "Run npm prune or remove unused projects"},
		},
		PatternGroups: []models.PatternGroup{
			{Pattern: "backup-*.tar", Count: 6, TotalSizeBytes: 6 << 30},
		},
		LargeFileClusters: []models.LargeFileCluster{
			{ClusterID: 0, Files: []models.FileRecord{{Path: "/a"}, {Path: "/b"}}, TotalSize: 2 << 30, AvgSimilarity: 88, Density: 1.0},
		},
		TotalSizeAnalyzed:  5 << 30,
		TotalFilesAnalyzed: 100,
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))
	assert.Contains(t, buf.String(), `"total_files_analyzed": 100`)
}

func TestWriteReportTables(t *testing.T) {
	var buf bytes.Buffer
	WriteReportTables(&buf, sampleReport())

	out := buf.String()
	assert.Contains(t, out, "Analyzed 100 files")
	assert.Contains(t, out, "/data/big.iso")
	assert.Contains(t, out, "node_modules")
	assert.Contains(t, out, "backup-*.tar")
	assert.Contains(t, out, "Similar file clusters")
}

func TestWriteReportTables_EmptySections(t *testing.T) {
	var buf bytes.Buffer
	WriteReportTables(&buf, &models.OutlierReport{TotalFilesAnalyzed: 3})

	out := buf.String()
	assert.Contains(t, out, "Analyzed 3 files")
	assert.NotContains(t, out, "Large file outliers")
	assert.NotContains(t, out, "Hidden space consumers")
}

func TestWriteDuplicateTables(t *testing.T) {
	var buf bytes.Buffer
	WriteDuplicateTables(&buf, dedupe.Report{
		Sets: []dedupe.DuplicateSet{
			{Checksum: "abc", Paths: []string{"/x/a", "/x/b"}, SizeBytes: 1024, WastedBytes: 1024},
		},
		TotalWasted: 1024,
	})

	out := buf.String()
	assert.Contains(t, out, "/x/a")
	assert.Contains(t, out, "Reclaimable space")

	buf.Reset()
	WriteDuplicateTables(&buf, dedupe.Report{})
	assert.Contains(t, buf.String(), "No duplicate files found")
}

func TestWriteOutliersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutliersCSV(&buf, sampleReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "path", rows[0][0])
	assert.Equal(t, "/data/big.iso", rows[1][0])
}

func TestWriteFileList(t *testing.T) {
	var buf bytes.Buffer
	WriteFileList(&buf, []string{"/a", "/b"})
	assert.Equal(t, "/a\n/b\n", buf.String())
}
