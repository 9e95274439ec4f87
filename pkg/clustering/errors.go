package clustering

import "fmt"

// InsufficientFilesError reports that too few qualifying files were supplied
// to attempt clustering.
type InsufficientFilesError struct {
	Have int
	Need int
}

func (e *InsufficientFilesError) Error() string {
	return fmt.Sprintf("insufficient files for clustering: %d < %d", e.Have, e.Need)
}

// InvalidSimilarityError reports a similarity threshold outside [50,100].
type InvalidSimilarityError struct {
	Value int
}

func (e *InvalidSimilarityError) Error() string {
	return fmt.Sprintf("invalid similarity threshold: %d (must be 50-100)", e.Value)
}

// DbscanError reports an internal clustering failure. The core algorithm
// never produces one; the type exists for callers layering their own
// neighborhood providers on top.
type DbscanError struct {
	Reason string
}

func (e *DbscanError) Error() string {
	return fmt.Sprintf("dbscan failed: %s", e.Reason)
}

// HashError reports a fuzzy-hash comparison that could not be evaluated.
type HashError struct {
	Reason string
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash comparison failed: %s", e.Reason)
}
