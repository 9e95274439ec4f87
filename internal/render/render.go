// Package render formats analysis results for terminals, JSON consumers,
// and CSV export.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/thebtf/reclaim/internal/dedupe"
	"github.com/thebtf/reclaim/pkg/models"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReportTables renders every populated report section as a table.
func WriteReportTables(w io.Writer, report *models.OutlierReport) {
	fmt.Fprintf(w, "Analyzed %d files, %s total\n\n",
		report.TotalFilesAnalyzed, humanize.IBytes(report.TotalSizeAnalyzed))

	if len(report.LargeFiles) > 0 {
		fmt.Fprintln(w, "Large file outliers:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Path", "Size", "% of Total", "Std Devs"})
		for _, o := range report.LargeFiles {
			table.Append([]string{
				o.Path,
				humanize.IBytes(o.SizeBytes),
				fmt.Sprintf("%.1f%%", o.PercentageOfTotal),
				fmt.Sprintf("%.2f", o.StdDevsFromMean),
			})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if len(report.HiddenConsumers) > 0 {
		fmt.Fprintln(w, "Hidden space consumers:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Path", "Type", "Size", "Files", "Recommendation"})
		for _, c := range report.HiddenConsumers {
			table.Append([]string{
				c.Path,
				c.PatternType,
				humanize.IBytes(c.TotalSizeBytes),
				strconv.Itoa(c.FileCount),
				c.Recommendation,
			})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if len(report.PatternGroups) > 0 {
		fmt.Fprintln(w, "File pattern groups:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Pattern", "Count", "Total Size"})
		for _, g := range report.PatternGroups {
			table.Append([]string{
				g.Pattern,
				strconv.Itoa(g.Count),
				humanize.IBytes(g.TotalSizeBytes),
			})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if len(report.LargeFileClusters) > 0 {
		fmt.Fprintln(w, "Similar file clusters:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Cluster", "Files", "Total Size", "Avg Similarity", "Density"})
		for _, c := range report.LargeFileClusters {
			table.Append([]string{
				strconv.Itoa(c.ClusterID),
				strconv.Itoa(len(c.Files)),
				humanize.IBytes(c.TotalSize),
				fmt.Sprintf("%.1f", c.AvgSimilarity),
				fmt.Sprintf("%.2f", c.Density),
			})
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

// WriteDuplicateTables renders exact-duplicate sets.
func WriteDuplicateTables(w io.Writer, report dedupe.Report) {
	if len(report.Sets) == 0 {
		fmt.Fprintln(w, "No duplicate files found.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Copies", "Size Each", "Wasted", "First Path"})
	for _, set := range report.Sets {
		table.Append([]string{
			strconv.Itoa(len(set.Paths)),
			humanize.IBytes(set.SizeBytes),
			humanize.IBytes(set.WastedBytes),
			set.Paths[0],
		})
	}
	table.Render()
	fmt.Fprintf(w, "\nReclaimable space: %s across %d duplicate sets\n",
		humanize.IBytes(report.TotalWasted), len(report.Sets))
}

// WriteOutliersCSV exports the large-file outliers for spreadsheet use.
func WriteOutliersCSV(w io.Writer, report *models.OutlierReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"path", "size_bytes", "size_mb", "percentage_of_total", "std_devs_from_mean"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range report.LargeFiles {
		row := []string{
			o.Path,
			strconv.FormatUint(o.SizeBytes, 10),
			strconv.FormatFloat(o.SizeMB, 'f', 2, 64),
			strconv.FormatFloat(o.PercentageOfTotal, 'f', 2, 64),
			strconv.FormatFloat(o.StdDevsFromMean, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileList prints plain paths, one per line.
func WriteFileList(w io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}
