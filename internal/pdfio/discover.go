package pdfio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindPDFs walks a directory tree and returns the paths of all PDF
// files, sorted for deterministic batch runs. Hidden directories are
// skipped. Unreadable entries are skipped rather than failing the walk.
func FindPDFs(directory string) ([]string, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if a specific entry fails.
			return nil //nolint:nilerr
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}
