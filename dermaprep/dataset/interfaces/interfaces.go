package interfaces

import (
	"context"
	"os"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/types"
)

// FileOperations defines the low-level file and directory operations the
// organizer depends on
type FileOperations interface {
	// File operations
	MoveFile(ctx context.Context, srcPath, dstPath string) error

	// Directory operations
	CreateDirectory(ctx context.Context, path string, perms os.FileMode) error
	RemoveDirIfEmpty(path string) (bool, error)

	// Utility operations
	ValidatePath(path string) error
}

// IgnoreChecker reports whether a path matches ignore patterns
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

// Organizer defines the dataset organization workflow
type Organizer interface {
	Consolidate(ctx context.Context, sourceDirs []string, stagingDir string, opts options.ConsolidateOptions) (*types.ConsolidateResult, error)
	Organize(ctx context.Context, stagingDir, destRoot, metadataPath string, opts options.OrganizeOptions) (*types.RunSummary, error)
	Run(ctx context.Context, sourceDirs []string, stagingDir, destRoot, metadataPath string, consOpts options.ConsolidateOptions, orgOpts options.OrganizeOptions) (*types.RunSummary, error)
}
