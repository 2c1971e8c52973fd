package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/interfaces"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/metadata"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/types"

	"github.com/google/uuid"
	ignore "github.com/sabhiram/go-gitignore"
)

// Organizer consolidates raw source directories into a staging area and
// redistributes staged files into label-named class directories driven by a
// metadata table. Execution is fully sequential; the filesystem is assumed
// uncontended for the duration of one run.
type Organizer struct {
	fileOps   interfaces.FileOperations
	pathUtils *common.PathUtils
}

// New creates a new organizer
func New(fileOps interfaces.FileOperations) *Organizer {
	return &Organizer{
		fileOps:   fileOps,
		pathUtils: common.NewPathUtils(),
	}
}

// Consolidate relocates item files from each existing source directory into
// the staging directory. Missing source directories are skipped with a
// warning. If duplicate filenames occur across sources, the last writer wins.
func (o *Organizer) Consolidate(ctx context.Context, sourceDirs []string, stagingDir string, opts options.ConsolidateOptions) (*types.ConsolidateResult, error) {
	start := time.Now()

	if err := o.fileOps.ValidatePath(stagingDir); err != nil {
		return nil, fmt.Errorf("invalid staging directory: %w", err)
	}

	result := &types.ConsolidateResult{
		StartTime:  start,
		StagingDir: stagingDir,
		DryRun:     opts.DryRun,
	}

	if !opts.DryRun {
		if err := o.fileOps.CreateDirectory(ctx, stagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create staging directory: %w", err)
		}
	}

	slog.Info("Starting consolidation",
		"sources", len(sourceDirs),
		"staging", stagingDir,
		"ext", opts.ImageExt,
		"dryRun", opts.DryRun)

	for _, sourceDir := range sourceDirs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(sourceDir)
		if err != nil || !info.IsDir() {
			slog.Warn("Source directory not found, skipping", "path", sourceDir)
			result.SkippedDirs = append(result.SkippedDirs, sourceDir)
			continue
		}

		moved, ignored, err := o.consolidateDirectory(ctx, sourceDir, stagingDir, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to consolidate %s: %w", sourceDir, err)
		}
		result.Moved += moved
		result.Ignored += ignored

		slog.Info("Source directory consolidated",
			"path", sourceDir,
			"moved", moved,
			"ignored", ignored)
	}

	result.Duration = time.Since(start)

	slog.Info("Consolidation completed",
		"moved", result.Moved,
		"ignored", result.Ignored,
		"skipped_dirs", len(result.SkippedDirs),
		"duration", result.Duration)

	return result, nil
}

// consolidateDirectory moves matching files from one source directory into staging
func (o *Organizer) consolidateDirectory(ctx context.Context, sourceDir, stagingDir string, opts options.ConsolidateOptions) (moved, ignored int, err error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read directory: %w", err)
	}

	checker := o.loadIgnoreChecker(sourceDir, opts.IgnoreFile)

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return moved, ignored, ctx.Err()
		default:
		}

		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), opts.ImageExt) {
			continue
		}

		srcPath := filepath.Join(sourceDir, entry.Name())
		if checker != nil && checker.MatchesPath(srcPath) {
			slog.Debug("Ignoring file", "path", srcPath)
			ignored++
			continue
		}

		if opts.DryRun {
			slog.Info("Dry run: would move file into staging", "src", srcPath)
			moved++
			continue
		}

		dstPath := filepath.Join(stagingDir, entry.Name())
		if err := o.fileOps.MoveFile(ctx, srcPath, dstPath); err != nil {
			return moved, ignored, fmt.Errorf("failed to move %s: %w", srcPath, err)
		}
		moved++
	}

	return moved, ignored, nil
}

// loadIgnoreChecker compiles the per-directory ignore file if present
func (o *Organizer) loadIgnoreChecker(dir, ignoreFile string) interfaces.IgnoreChecker {
	if ignoreFile == "" {
		return nil
	}

	ignorePath := filepath.Join(dir, ignoreFile)
	if _, err := os.Stat(ignorePath); err != nil {
		return nil
	}

	checker, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		slog.Warn("Failed to compile ignore file", "path", ignorePath, "error", err)
		return nil
	}
	return checker
}

// Organize redistributes staged files into class directories under destRoot,
// driven by the metadata table in table order. Missing staged files are
// non-fatal and tallied; a missing or malformed metadata table aborts the
// run before any files move.
func (o *Organizer) Organize(ctx context.Context, stagingDir, destRoot, metadataPath string, opts options.OrganizeOptions) (*types.RunSummary, error) {
	start := time.Now()

	table, err := metadata.Load(metadataPath, metadata.Columns{ID: opts.IDColumn, Label: opts.LabelColumn})
	if err != nil {
		return nil, err
	}

	duplicates := table.Duplicates()
	if len(duplicates) > 0 {
		if opts.OnDuplicate == options.DuplicateFail {
			return nil, &common.DuplicateError{Path: metadataPath, IDs: duplicates}
		}
		slog.Warn("Metadata table contains duplicate identifiers; later records will count as missing",
			"duplicates", len(duplicates))
	}

	summary := &types.RunSummary{
		RunID:      uuid.New(),
		StartTime:  start,
		StagingDir: stagingDir,
		DestRoot:   destRoot,
		DryRun:     opts.DryRun,
		Duplicates: duplicates,
	}

	slog.Info("Starting organization",
		"run_id", summary.RunID,
		"staging", stagingDir,
		"dest", destRoot,
		"records", table.Len(),
		"dryRun", opts.DryRun)

	if !opts.DryRun {
		if err := o.fileOps.CreateDirectory(ctx, destRoot, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create destination root: %w", err)
		}
	}

	seenLabels := make(map[string]bool)
	// Tracks staged files already consumed so a dry run reports the same
	// moved/missing counts as a real one
	consumed := make(map[string]bool)

	for _, record := range table.Records() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if record.Label == "" {
			slog.Warn("Record has empty label, skipping", "image_id", record.ImageID)
			summary.Missing++
			continue
		}

		fileName := o.pathUtils.ItemFileName(record.ImageID, opts.ImageExt)
		srcPath := filepath.Join(stagingDir, fileName)

		if consumed[srcPath] {
			summary.Missing++
			continue
		}
		if _, err := os.Stat(srcPath); err != nil {
			summary.Missing++
			continue
		}

		labelDir := filepath.Join(destRoot, record.Label)
		dstPath := filepath.Join(labelDir, fileName)

		if !opts.DryRun {
			if err := o.fileOps.CreateDirectory(ctx, labelDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create class directory %s: %w", labelDir, err)
			}
			if err := o.fileOps.MoveFile(ctx, srcPath, dstPath); err != nil {
				return nil, fmt.Errorf("failed to move %s to %s: %w", srcPath, dstPath, err)
			}
		}

		consumed[srcPath] = true
		summary.Moved++
		if !seenLabels[record.Label] {
			seenLabels[record.Label] = true
			summary.Labels = append(summary.Labels, record.Label)
		}
	}

	// Cleanup of transient state: remove the staging directory only when it
	// ended up empty; unrelated files keep it alive
	if !opts.DryRun {
		removed, err := o.fileOps.RemoveDirIfEmpty(stagingDir)
		if err != nil {
			slog.Warn("Failed to clean up staging directory", "path", stagingDir, "error", err)
		}
		summary.StagingRemoved = removed
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	slog.Info("Organization completed",
		"run_id", summary.RunID,
		"moved", summary.Moved,
		"missing", summary.Missing,
		"labels", len(summary.Labels),
		"staging_removed", summary.StagingRemoved,
		"duration", summary.Duration)

	if summary.Missing > 0 {
		slog.Warn("Some metadata records had no staged file", "missing", summary.Missing)
	}

	return summary, nil
}

// Run performs the full consolidate-then-organize sequence. Consolidation
// moves are independent of organization failures and are not rolled back.
func (o *Organizer) Run(ctx context.Context, sourceDirs []string, stagingDir, destRoot, metadataPath string, consOpts options.ConsolidateOptions, orgOpts options.OrganizeOptions) (*types.RunSummary, error) {
	if _, err := o.Consolidate(ctx, sourceDirs, stagingDir, consOpts); err != nil {
		return nil, fmt.Errorf("consolidation failed: %w", err)
	}

	summary, err := o.Organize(ctx, stagingDir, destRoot, metadataPath, orgOpts)
	if err != nil {
		return nil, fmt.Errorf("organization failed: %w", err)
	}

	return summary, nil
}

// Ensure Organizer implements the interface
var _ interfaces.Organizer = (*Organizer)(nil)
