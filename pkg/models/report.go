package models

// LargeFileCluster is a group of near-duplicate files found by DBSCAN over
// fuzzy-hash distances.
type LargeFileCluster struct {
	ClusterID     int          `json:"cluster_id"`
	Files         []FileRecord `json:"files"`
	TotalSize     uint64       `json:"total_size"`
	AvgSimilarity float64      `json:"avg_similarity"`
	Density       float64      `json:"density"`
}

// LargeFileOutlier is a file whose size lies unusually far above the mean.
type LargeFileOutlier struct {
	Path              string  `json:"path"`
	SizeBytes         uint64  `json:"size_bytes"`
	SizeMB            float64 `json:"size_mb"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
	StdDevsFromMean   float64 `json:"std_devs_from_mean"`
}

// HiddenConsumer is a directory matching a known space-wasting pattern
// (node_modules, .git, build output and friends).
type HiddenConsumer struct {
	Path           string `json:"path"`
	PatternType    string `json:"pattern_type"`
	TotalSizeBytes uint64 `json:"total_size_bytes"`
	FileCount      int    `json:"file_count"`
	Recommendation string `json:"recommendation"`
}

// PatternGroup is a set of files sharing a numbered or dated naming scheme.
type PatternGroup struct {
	Pattern        string   `json:"pattern"`
	Count          int      `json:"count"`
	TotalSizeBytes uint64   `json:"total_size_bytes"`
	SampleFiles    []string `json:"sample_files"`
}

// OutlierReport aggregates every detector's findings for one analysis run.
type OutlierReport struct {
	LargeFiles         []LargeFileOutlier `json:"large_files"`
	HiddenConsumers    []HiddenConsumer   `json:"hidden_consumers"`
	PatternGroups      []PatternGroup     `json:"pattern_groups"`
	LargeFileClusters  []LargeFileCluster `json:"large_file_clusters"`
	TotalSizeAnalyzed  uint64             `json:"total_size_analyzed"`
	TotalFilesAnalyzed int                `json:"total_files_analyzed"`
}
