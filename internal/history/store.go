// Package history persists analysis runs so scans of the same tree can be
// compared over time.
package history

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thebtf/reclaim/pkg/models"
)

// Store wraps the GORM connection to the history database.
type Store struct {
	DB    *gorm.DB
	sqlDB *sql.DB
}

// Config holds database configuration.
type Config struct {
	Path     string
	MaxConns int
	LogLevel logger.LogLevel
}

// NewStore opens the history database with WAL mode enabled.
func NewStore(cfg Config) (*Store, error) {
	dsn := cfg.Path + "?_foreign_keys=ON"

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{
		Conn: sqlDB,
	}, &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// WAL and busy timeout via raw SQL, after migrations, to avoid GORM
	// transaction issues.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{DB: db, sqlDB: sqlDB}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// SaveRun records one completed analysis. Returns the generated run ID.
func (s *Store) SaveRun(rootPath string, report *models.OutlierReport, wastedBytes uint64) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	run := AnalysisRun{
		RootPath:       rootPath,
		FileCount:      report.TotalFilesAnalyzed,
		TotalSizeBytes: report.TotalSizeAnalyzed,
		OutlierCount:   len(report.LargeFiles),
		ClusterCount:   len(report.LargeFileClusters),
		WastedBytes:    wastedBytes,
		ReportJSON:     string(data),
	}
	if err := s.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.RunID, nil
}

// RecentRuns returns the newest runs, most recent first. A non-empty
// rootPath restricts results to that tree.
func (s *Store) RecentRuns(rootPath string, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = 10
	}

	q := s.DB.Order("created_at_epoch DESC").Limit(limit)
	if rootPath != "" {
		q = q.Where("root_path = ?", rootPath)
	}

	var runs []AnalysisRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunByID fetches one run by its public run ID.
func (s *Store) RunByID(runID string) (*AnalysisRun, error) {
	var run AnalysisRun
	if err := s.DB.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return &run, nil
}

// Report unmarshals the run's stored report.
func (r *AnalysisRun) Report() (*models.OutlierReport, error) {
	var report models.OutlierReport
	if err := json.Unmarshal([]byte(r.ReportJSON), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report for run %s: %w", r.RunID, err)
	}
	return &report, nil
}
