package types

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary contains the complete result of one organize run
type RunSummary struct {
	RunID      uuid.UUID     `json:"run_id"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	StagingDir string        `json:"staging_dir"`
	DestRoot   string        `json:"dest_root"`
	DryRun     bool          `json:"dry_run"`
	Moved      int           `json:"moved"`
	Missing    int           `json:"missing"`
	Duplicates []string      `json:"duplicates,omitempty"`
	Labels     []string      `json:"labels,omitempty"`
	// StagingRemoved reports whether the staging directory was empty after
	// the run and therefore cleaned up
	StagingRemoved bool `json:"staging_removed"`
}

// ConsolidateResult contains the result of consolidating source directories
// into the staging area
type ConsolidateResult struct {
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
	StagingDir  string        `json:"staging_dir"`
	Moved       int           `json:"moved"`
	Ignored     int           `json:"ignored"`
	SkippedDirs []string      `json:"skipped_dirs,omitempty"`
	DryRun      bool          `json:"dry_run"`
}

// ClassCount holds the image tally for a single class directory
type ClassCount struct {
	Label      string `json:"label"`
	Images     int    `json:"images"`
	Unreadable int    `json:"unreadable,omitempty"`
}

// ClassBalance summarizes the distribution of images across classes
type ClassBalance struct {
	Classes        int     `json:"classes"`
	TotalImages    int     `json:"total_images"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	SmallestClass  string  `json:"smallest_class"`
	LargestClass   string  `json:"largest_class"`
	ImbalanceRatio float64 `json:"imbalance_ratio"`
}

// ManifestItem is one labeled image path in a split manifest
type ManifestItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}
