package models

// OutlierOptions controls which detectors run and how aggressive they are.
// Plain values only; loading them has no side effects.
type OutlierOptions struct {
	// MinSize excludes files below this many bytes from the statistical
	// detector and from clustering. Zero means no floor.
	MinSize uint64 `json:"min_size,omitempty"`
	// TopN caps the number of reported large-file outliers. Zero means
	// no cap.
	TopN int `json:"top_n,omitempty"`
	// StdDevThreshold is the z-score above which a file counts as an
	// outlier.
	StdDevThreshold float64 `json:"std_dev_threshold"`

	CheckHiddenConsumers bool `json:"check_hidden_consumers"`
	CheckPatterns        bool `json:"check_patterns"`

	EnableClustering bool `json:"enable_clustering"`
	// ClusterSimilarity is the minimum similarity percentage (50-100)
	// for two files to land in the same cluster.
	ClusterSimilarity int `json:"cluster_similarity"`
	MinClusterSize    int `json:"min_cluster_size"`
	// BatchSize is the input size above which clustering switches to the
	// LSH-bucketed batch path.
	BatchSize int `json:"batch_size"`
}

// DefaultOutlierOptions mirrors the defaults of the CLI surface.
func DefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{
		TopN:                 20,
		StdDevThreshold:      2.0,
		CheckHiddenConsumers: true,
		CheckPatterns:        true,
		EnableClustering:     false,
		ClusterSimilarity:    70,
		MinClusterSize:       2,
		BatchSize:            1000,
	}
}
