package fileops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
)

// FileOps provides low-level file system operations for dataset preparation
type FileOps struct {
	metrics     *common.FileOperationMetrics
	safetyUtils *common.SafetyUtils
	pathUtils   *common.PathUtils
}

// NewFileOps creates a new file operations instance
func NewFileOps() *FileOps {
	return &FileOps{
		metrics:     &common.FileOperationMetrics{},
		safetyUtils: common.NewSafetyUtils(),
		pathUtils:   common.NewPathUtils(),
	}
}

// MoveFile moves a single file. Rename is attempted first; cross-device
// moves fall back to copy + delete.
func (fo *FileOps) MoveFile(ctx context.Context, srcPath, dstPath string) error {
	start := time.Now()

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := fo.safetyUtils.ValidateOperationSafety(srcPath, dstPath); err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("operation not safe: %w", err)
	}

	// Try rename first - file moved within same device
	if err := os.Rename(srcPath, dstPath); err == nil {
		fo.metrics.UpdateMetrics(start, true, 0)
		return nil
	} else if !fo.isCrossDeviceError(err) {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("failed to move file: %w", err)
	}

	// Cross-device move - copy then delete
	bytesCopied, err := fo.performFileCopy(ctx, srcPath, dstPath)
	if err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("failed to copy file during move: %w", err)
	}

	if err := os.Remove(srcPath); err != nil {
		fo.metrics.UpdateMetrics(start, false, bytesCopied)
		return fmt.Errorf("failed to remove source file after copy: %w", err)
	}

	fo.metrics.RecordCrossDeviceMove()
	fo.metrics.UpdateMetrics(start, true, bytesCopied)
	return nil
}

// CreateDirectory creates a directory with the specified permissions
func (fo *FileOps) CreateDirectory(ctx context.Context, path string, perms os.FileMode) error {
	start := time.Now()

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := fo.pathUtils.ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	if err := os.MkdirAll(path, perms); err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	fo.metrics.UpdateMetrics(start, true, 0)
	return nil
}

// RemoveDirIfEmpty removes path if it is an empty directory and reports
// whether removal happened. A populated directory is left untouched.
func (fo *FileOps) RemoveDirIfEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	if len(entries) > 0 {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to remove empty directory %s: %w", path, err)
	}
	return true, nil
}

// ValidatePath validates that a path is safe and accessible
func (fo *FileOps) ValidatePath(path string) error {
	return fo.pathUtils.ValidatePath(path)
}

// GetMetrics returns performance metrics
func (fo *FileOps) GetMetrics() map[string]interface{} {
	return fo.metrics.GetMetrics()
}

// Private helper methods

func (fo *FileOps) performFileCopy(ctx context.Context, srcPath, dstPath string) (int64, error) {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	// Create destination directory if it doesn't exist
	dstDir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	bytesCopied, err := fo.copyWithCancellation(ctx, dstFile, srcFile)
	if err != nil {
		return bytesCopied, fmt.Errorf("failed to copy file content: %w", err)
	}

	return bytesCopied, nil
}

func (fo *FileOps) copyWithCancellation(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buffer := make([]byte, 32*1024) // 32KB buffer
	var totalBytes int64

	for {
		select {
		case <-ctx.Done():
			return totalBytes, ctx.Err()
		default:
		}

		n, readErr := src.Read(buffer)
		if n > 0 {
			if _, writeErr := dst.Write(buffer[:n]); writeErr != nil {
				return totalBytes, writeErr
			}
			totalBytes += int64(n)
		}

		if readErr != nil {
			if readErr == io.EOF {
				return totalBytes, nil
			}
			return totalBytes, readErr
		}
	}
}

func (fo *FileOps) isCrossDeviceError(err error) bool {
	return strings.Contains(err.Error(), "cross-device link") ||
		strings.Contains(err.Error(), "invalid cross-device link")
}
