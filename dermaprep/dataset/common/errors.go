package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Common error types used across dataset packages
var (
	ErrPathEmpty        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid      = errors.New("path contains invalid characters")
	ErrMetadataNotFound = errors.New("metadata table not found")
	ErrSchemaInvalid    = errors.New("metadata table schema invalid")
	ErrDuplicateRecords = errors.New("metadata table contains duplicate identifiers")
	ErrDatasetEmpty     = errors.New("dataset directory contains no images")
)

// MissingInputError indicates a required input path does not exist.
// It wraps ErrMetadataNotFound so callers can match with errors.Is.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("required input not found at %s", e.Path)
}

func (e *MissingInputError) Unwrap() error {
	return ErrMetadataNotFound
}

// SchemaError indicates the metadata table is missing required columns.
// It is raised after the table is loaded but before any files are moved.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("metadata table %s missing required columns: %s",
		e.Path, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaInvalid
}

// DuplicateError indicates identifiers that appear more than once in the
// metadata table when the run is configured to reject duplicates.
type DuplicateError struct {
	Path string
	IDs  []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("metadata table %s contains duplicate identifiers: %s",
		e.Path, strings.Join(e.IDs, ", "))
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateRecords
}

// ValidationUtils provides common validation utilities used across packages
type ValidationUtils struct{}

// NewValidationUtils creates a new ValidationUtils instance
func NewValidationUtils() *ValidationUtils {
	return &ValidationUtils{}
}

// ValidateRequiredString validates that a string is not empty
func (vu *ValidationUtils) ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateFileExists validates that a file exists
func (vu *ValidationUtils) ValidateFileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &MissingInputError{Path: path}
		}
		return fmt.Errorf("failed to access file %s: %w", path, err)
	}
	return nil
}

// ValidateDirectoryExists validates that a directory exists
func (vu *ValidationUtils) ValidateDirectoryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingInputError{Path: path}
		}
		return fmt.Errorf("failed to access directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}
