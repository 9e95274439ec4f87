package outliers

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/thebtf/reclaim/pkg/models"
)

const (
	// minPatternGroupSize is the smallest series worth reporting; fewer
	// instances are coincidence, not a pattern.
	minPatternGroupSize = 3
	maxSampleFiles      = 5
)

var (
	// numberedPattern matches series like backup-001.tar or file_123.log.
	numberedPattern = regexp.MustCompile(`^(.+?)[-_]?(\d{2,})(\..+)?$`)
	// datedPattern matches series like log-2024-01-01.txt, separator tolerant.
	datedPattern = regexp.MustCompile(`^(.+?)[-_]?(\d{4}[-_]?\d{2}[-_]?\d{2})(\..+)?$`)
)

// DetectPatternGroups finds recurring numbered or dated file-name series.
// The numbered form is tried before the dated form; groups with fewer than
// three members are discarded. Results are sorted by total size descending.
func DetectPatternGroups(records []models.FileRecord) []models.PatternGroup {
	grouped := make(map[string][]models.FileRecord)
	for _, r := range records {
		name := filepath.Base(r.Path)
		prefix, suffix, ok := matchSeries(name)
		if !ok {
			continue
		}
		key := prefix + "*" + suffix
		grouped[key] = append(grouped[key], r)
	}

	var groups []models.PatternGroup
	for pattern, members := range grouped {
		if len(members) < minPatternGroupSize {
			continue
		}

		var totalSize uint64
		for _, r := range members {
			totalSize += r.SizeBytes
		}

		samples := make([]string, 0, maxSampleFiles)
		for _, r := range members {
			if len(samples) == maxSampleFiles {
				break
			}
			samples = append(samples, r.Path)
		}

		groups = append(groups, models.PatternGroup{
			Pattern:        pattern,
			Count:          len(members),
			TotalSizeBytes: totalSize,
			SampleFiles:    samples,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalSizeBytes != groups[j].TotalSizeBytes {
			return groups[i].TotalSizeBytes > groups[j].TotalSizeBytes
		}
		return groups[i].Pattern < groups[j].Pattern
	})
	return groups
}

// matchSeries extracts the (prefix, extension) key of a series-shaped file
// name, trying the numbered shape before the dated one.
func matchSeries(name string) (prefix, suffix string, ok bool) {
	if prefix, suffix, ok = matchNumbered(name); ok {
		return prefix, suffix, true
	}
	return matchDated(name)
}

func matchNumbered(name string) (prefix, suffix string, ok bool) {
	m := numberedPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[3], true
}

func matchDated(name string) (prefix, suffix string, ok bool) {
	m := datedPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[3], true
}
