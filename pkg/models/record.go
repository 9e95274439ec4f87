// Package models defines the value types shared by reclaim's detectors.
package models

// FileRecord is the per-file input consumed by every detector. Records are
// produced once by the scanner and never mutated afterwards.
type FileRecord struct {
	Path      string `json:"path"`
	SizeBytes uint64 `json:"size_bytes"`
	FuzzyHash string `json:"fuzzy_hash,omitempty"`
}

// HasFuzzyHash reports whether the record carries a usable fuzzy hash.
func (r FileRecord) HasFuzzyHash() bool {
	return r.FuzzyHash != ""
}

// TotalSize sums the sizes of all records.
func TotalSize(records []FileRecord) uint64 {
	var total uint64
	for _, r := range records {
		total += r.SizeBytes
	}
	return total
}
