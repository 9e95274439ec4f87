package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalysisRun is one persisted scan of a root path. The full report is kept
// as a JSON document; the scalar columns exist for listing and trending
// without unmarshaling every row.
type AnalysisRun struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	RunID          string `gorm:"uniqueIndex;not null"`
	RootPath       string `gorm:"index;not null"`
	FileCount      int    `gorm:"not null"`
	TotalSizeBytes uint64 `gorm:"not null"`
	OutlierCount   int    `gorm:"default:0"`
	ClusterCount   int    `gorm:"default:0"`
	WastedBytes    uint64 `gorm:"default:0"`
	ReportJSON     string `gorm:"type:text"`
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"index:idx_runs_created,sort:desc;not null"`
}

func (AnalysisRun) TableName() string { return "analysis_runs" }

// BeforeCreate hook to ensure identity and timestamps are set.
func (r *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}
