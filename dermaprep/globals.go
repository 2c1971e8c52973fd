package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for config discovery and CLI branding
	DefaultAppName    = "dermaprep"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)

	// DefaultImageExt is the extension appended to metadata identifiers
	// when locating dataset files
	DefaultImageExt = ".jpg"

	// DefaultIgnoreFile names the per-directory ignore file honored during
	// consolidation
	DefaultIgnoreFile = ".dermaprep-ignore"

	// Default metadata column names (HAM10000 convention)
	DefaultIDColumn    = "image_id"
	DefaultLabelColumn = "dx"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
