// Package dedupe finds exact duplicates by content checksum and near
// duplicates by fuzzy-hash similarity.
package dedupe

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/reclaim/internal/scanner"
	"github.com/thebtf/reclaim/pkg/fuzzyhash"
	"github.com/thebtf/reclaim/pkg/models"
)

// DuplicateSet is one group of files with identical content.
type DuplicateSet struct {
	Checksum string   `json:"checksum"`
	Paths    []string `json:"paths"`
	// SizeBytes is the size of a single copy.
	SizeBytes uint64 `json:"size_bytes"`
	// WastedBytes is the space freed by keeping one copy.
	WastedBytes uint64 `json:"wasted_bytes"`
}

// Report summarizes all duplicate sets found in a scan.
type Report struct {
	Sets        []DuplicateSet `json:"sets"`
	TotalWasted uint64         `json:"total_wasted_bytes"`
}

// FindDuplicates checksums the records' files and groups those with
// identical content. Sets are ordered by wasted bytes descending, then by
// first path for a stable report.
func FindDuplicates(ctx context.Context, records []models.FileRecord) Report {
	sizes := make(map[string]uint64, len(records))
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		sizes[rec.Path] = rec.SizeBytes
		paths = append(paths, rec.Path)
	}

	groups := scanner.Checksums(ctx, paths)

	var report Report
	for sum, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)

		set := DuplicateSet{
			Checksum:  sum,
			Paths:     members,
			SizeBytes: sizes[members[0]],
		}
		set.WastedBytes = set.SizeBytes * uint64(len(members)-1)
		report.Sets = append(report.Sets, set)
		report.TotalWasted += set.WastedBytes
	}

	sort.Slice(report.Sets, func(i, j int) bool {
		if report.Sets[i].WastedBytes != report.Sets[j].WastedBytes {
			return report.Sets[i].WastedBytes > report.Sets[j].WastedBytes
		}
		return report.Sets[i].Paths[0] < report.Sets[j].Paths[0]
	})

	log.Debug().Int("sets", len(report.Sets)).Uint64("wasted_bytes", report.TotalWasted).Msg("Duplicate scan finished")
	return report
}

// SimilarGroup is a group of near-duplicate files, led by a representative.
type SimilarGroup struct {
	Representative models.FileRecord   `json:"representative"`
	Members        []models.FileRecord `json:"members"`
	// MinSimilarity is the lowest member-to-representative score in the group.
	MinSimilarity int `json:"min_similarity"`
}

// FindSimilar greedily groups records whose fuzzy hashes score at or above
// the threshold against a group representative. Records are visited largest
// first, so each representative is the biggest file of its group. Records
// without a fuzzy hash are skipped.
func FindSimilar(records []models.FileRecord, threshold int, cmp fuzzyhash.Comparer) []SimilarGroup {
	if cmp == nil {
		cmp = fuzzyhash.SSDeep{}
	}

	hashed := make([]models.FileRecord, 0, len(records))
	for _, rec := range records {
		if rec.HasFuzzyHash() {
			hashed = append(hashed, rec)
		}
	}
	sort.Slice(hashed, func(i, j int) bool {
		if hashed[i].SizeBytes != hashed[j].SizeBytes {
			return hashed[i].SizeBytes > hashed[j].SizeBytes
		}
		return hashed[i].Path < hashed[j].Path
	})

	grouped := make([]bool, len(hashed))
	var groups []SimilarGroup

	for i := range hashed {
		if grouped[i] {
			continue
		}
		grouped[i] = true

		group := SimilarGroup{
			Representative: hashed[i],
			MinSimilarity:  100,
		}
		for j := i + 1; j < len(hashed); j++ {
			if grouped[j] {
				continue
			}
			score, err := cmp.Compare(hashed[i].FuzzyHash, hashed[j].FuzzyHash)
			if err != nil {
				log.Debug().Err(err).Str("path", hashed[j].Path).Msg("Fuzzy comparison failed, skipping pair")
				continue
			}
			if score >= threshold {
				grouped[j] = true
				group.Members = append(group.Members, hashed[j])
				if score < group.MinSimilarity {
					group.MinSimilarity = score
				}
			}
		}

		if len(group.Members) > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}
