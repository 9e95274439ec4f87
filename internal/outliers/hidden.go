package outliers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/thebtf/reclaim/pkg/models"
)

// consumerPattern describes one known space-wasting directory family.
type consumerPattern struct {
	name           string
	description    string
	recommendation string
}

// hiddenConsumerPatterns is process-wide read-only configuration; detectors
// only ever read it. Order matters: the first matching entry wins.
var hiddenConsumerPatterns = []consumerPattern{
	{"node_modules", "Node.js dependencies", "Consider using npm prune or clearing unused dependencies"},
	{".git", "Git repository data", "Run git gc to clean up unnecessary files"},
	{"target", "Rust build artifacts", "Run cargo clean to remove build artifacts"},
	{"build", "Build output directory", "Clean build artifacts if not needed"},
	{"dist", "Distribution files", "Remove old distribution builds"},
	{".venv", "Python virtual environment", "Recreate virtual environment if needed"},
	{"__pycache__", "Python cache files", "Safe to delete, will be regenerated"},
	{".cache", "Application cache", "Review and clean old cache files"},
	{"tmp", "Temporary files", "Clean up old temporary files"},
	{"logs", "Log files", "Archive or delete old logs"},
}

// DetectHiddenConsumers aggregates files under directories matching the
// known pattern table. Directories with zero aggregate size are skipped.
// Results are sorted by total size descending.
func DetectHiddenConsumers(records []models.FileRecord) []models.HiddenConsumer {
	byDir := make(map[string][]models.FileRecord)
	for _, r := range records {
		dir := filepath.Dir(r.Path)
		byDir[dir] = append(byDir[dir], r)
	}

	var consumers []models.HiddenConsumer
	for dir, contents := range byDir {
		pattern, ok := matchConsumerPattern(dir)
		if !ok {
			continue
		}

		var totalSize uint64
		for _, r := range contents {
			totalSize += r.SizeBytes
		}
		if totalSize == 0 {
			continue
		}

		consumers = append(consumers, models.HiddenConsumer{
			Path:           dir,
			PatternType:    pattern.description,
			TotalSizeBytes: totalSize,
			FileCount:      len(contents),
			Recommendation: pattern.recommendation,
		})
	}

	sort.Slice(consumers, func(i, j int) bool {
		if consumers[i].TotalSizeBytes != consumers[j].TotalSizeBytes {
			return consumers[i].TotalSizeBytes > consumers[j].TotalSizeBytes
		}
		return consumers[i].Path < consumers[j].Path
	})
	return consumers
}

// matchConsumerPattern checks the directory basename and path suffix against
// the pattern table; the first hit wins, so a directory is never multi-tagged.
func matchConsumerPattern(dir string) (consumerPattern, bool) {
	base := filepath.Base(dir)
	for _, p := range hiddenConsumerPatterns {
		if base == p.name || strings.HasSuffix(dir, string(filepath.Separator)+p.name) {
			return p, true
		}
	}
	return consumerPattern{}, false
}
