package options

import (
	internal "github.com/mu-hashmi/dermaprep/dermaprep"
)

// DuplicatePolicy defines how duplicate identifiers in the metadata table
// are handled during organization
type DuplicatePolicy string

const (
	// DuplicateFail aborts the run before any files are moved
	DuplicateFail DuplicatePolicy = "fail"
	// DuplicateLastWins tolerates duplicates; the first record consumes the
	// staging file and later records for the same identifier count as missing
	DuplicateLastWins DuplicatePolicy = "last-wins"
)

// ConsolidateOptions configures consolidation of source directories into staging
type ConsolidateOptions struct {
	ImageExt   string // Extension of item files, including the dot (e.g. ".jpg")
	IgnoreFile string // Name of per-directory ignore file (empty disables)
	DryRun     bool   // Preview operations without executing
}

// OrganizeOptions configures redistribution of staged files into class directories
type OrganizeOptions struct {
	IDColumn    string          // Metadata column holding item identifiers
	LabelColumn string          // Metadata column holding class labels
	ImageExt    string          // Extension of item files, including the dot
	OnDuplicate DuplicatePolicy // Duplicate identifier handling
	DryRun      bool            // Preview operations without executing
}

// CensusOptions configures per-class image counting
type CensusOptions struct {
	WorkerCount int  // Number of concurrent workers over class directories
	VerifyEXIF  bool // Probe each image for decodable EXIF metadata
}

// SplitOptions configures train/test manifest construction
type SplitOptions struct {
	TrainRatio float64  // Fraction of items assigned to the training set
	Seed       int64    // Seed for the deterministic shuffle
	Extensions []string // Image extensions considered (defaults if empty)
}

// DefaultConsolidateOptions returns sensible defaults for consolidation
func DefaultConsolidateOptions() ConsolidateOptions {
	return ConsolidateOptions{
		ImageExt:   internal.DefaultImageExt,
		IgnoreFile: internal.DefaultIgnoreFile,
		DryRun:     false,
	}
}

// DefaultOrganizeOptions returns sensible defaults for organization
func DefaultOrganizeOptions() OrganizeOptions {
	return OrganizeOptions{
		IDColumn:    internal.DefaultIDColumn,
		LabelColumn: internal.DefaultLabelColumn,
		ImageExt:    internal.DefaultImageExt,
		OnDuplicate: DuplicateFail,
		DryRun:      false,
	}
}

// DefaultCensusOptions returns sensible defaults for counting
func DefaultCensusOptions() CensusOptions {
	return CensusOptions{
		WorkerCount: 4,
		VerifyEXIF:  false,
	}
}

// DefaultSplitOptions returns sensible defaults for split construction
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		TrainRatio: 0.7,
		Seed:       42,
	}
}
