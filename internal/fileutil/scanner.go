package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/chrouter/internal/models"
)

// DefaultExcludeMarkers are the path substrings that prune a directory subtree.
// Matching is case-sensitive.
var DefaultExcludeMarkers = []string{"DEFAULT", "SNAPSHOT", "DEMO"}

// DefaultCandidateSubstring selects signal files. It is matched against the
// lower-cased path.
const DefaultCandidateSubstring = ".ch"

// CandidateOptions configures ScanCandidates
type CandidateOptions struct {
	// Substring must appear in the lower-cased file path (e.g. ".ch")
	Substring string
	// ExcludeMarkers prune any directory whose path contains one of them
	ExcludeMarkers []string
	// Skip reports paths that must not be returned (already processed)
	Skip func(path string) bool
}

// DefaultCandidateOptions returns the options used by the processing loop.
func DefaultCandidateOptions(processed *ProcessedSet) CandidateOptions {
	opts := CandidateOptions{
		Substring:      DefaultCandidateSubstring,
		ExcludeMarkers: DefaultExcludeMarkers,
	}
	if processed != nil {
		opts.Skip = processed.Contains
	}
	return opts
}

// ScanResult contains the results of a candidate scan
type ScanResult struct {
	// Files holds candidate paths in walk order
	Files []string
	// Errors holds one ScanError per directory that could not be listed
	Errors []*models.ProcessingError
}

// ScanCandidates walks root recursively and returns files whose lower-cased
// path contains opts.Substring, skipping pruned subtrees and paths rejected by
// opts.Skip. A directory that cannot be listed is recorded in Errors and the
// walk continues. An inaccessible root is returned as an error.
func ScanCandidates(root string, opts CandidateOptions) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", root)
	}

	substring := strings.ToLower(opts.Substring)
	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]*models.ProcessingError, 0),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors,
				models.NewProcessingError(models.KindScanError, path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// The root is always descended; only subdirectories are pruned.
			if path != root && Excluded(path, opts.ExcludeMarkers) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.Contains(strings.ToLower(path), substring) {
			return nil
		}
		if opts.Skip != nil && opts.Skip(path) {
			return nil
		}

		result.Files = append(result.Files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source directory: %w", err)
	}

	return result, nil
}

// Excluded reports whether path contains any of the markers.
func Excluded(path string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(path, m) {
			return true
		}
	}
	return false
}
