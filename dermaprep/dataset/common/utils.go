package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across dataset packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a file path for cross-platform compatibility
func (pu *PathUtils) NormalizePath(path string) string {
	// Convert to absolute path
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// IsSubpath checks if child is a subpath of parent
func (pu *PathUtils) IsSubpath(parent, child string) bool {
	parent = pu.NormalizePath(parent)
	child = pu.NormalizePath(child)

	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}

	return !strings.HasPrefix(rel, "..") && rel != "."
}

// SplitPath splits a path into directory and filename components
func (pu *PathUtils) SplitPath(path string) (dir, name, ext string) {
	dir = filepath.Dir(path)
	name = filepath.Base(path)
	ext = filepath.Ext(name)

	if ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	return dir, name, ext
}

// ValidatePath validates that a path is safe and accessible
func (pu *PathUtils) ValidatePath(path string) error {
	if path == "" {
		return ErrPathEmpty
	}

	// Check for invalid characters (basic check)
	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}

	// Check path length (reasonable limit)
	if len(path) > 4096 {
		return ErrPathTooLong
	}

	return nil
}

// ItemFileName derives the expected file name for a metadata identifier
func (pu *PathUtils) ItemFileName(imageID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s%s", imageID, ext)
}

// SafetyUtils provides safety checks for file operations used across packages
type SafetyUtils struct{}

// NewSafetyUtils creates a new SafetyUtils instance
func NewSafetyUtils() *SafetyUtils {
	return &SafetyUtils{}
}

// IsSafeOperation checks if a file operation is safe to perform
func (su *SafetyUtils) IsSafeOperation(srcPath, dstPath string) error {
	// Check for self-reference
	if srcPath == dstPath {
		return fmt.Errorf("source and destination are the same")
	}

	// Check for circular operations (moving parent into child)
	pathUtils := NewPathUtils()
	if pathUtils.IsSubpath(srcPath, dstPath) {
		return fmt.Errorf("cannot move parent directory into child directory")
	}

	return nil
}

// ValidateOperationSafety performs safety validation for a planned move
func (su *SafetyUtils) ValidateOperationSafety(srcPath, dstPath string) error {
	pathUtils := NewPathUtils()
	if err := pathUtils.ValidatePath(srcPath); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if err := pathUtils.ValidatePath(dstPath); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}
	return su.IsSafeOperation(srcPath, dstPath)
}
