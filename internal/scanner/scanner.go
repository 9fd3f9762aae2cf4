// Package scanner discovers candidate collection files inside an
// extracted upload.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apimorph/pmconv/internal/domain"
)

// Scanner discovers collection files in an extracted archive tree.
type Scanner interface {
	Scan(rootDir string, patterns []string, excludes []string) ([]string, error)
}

// FileScanner implements Scanner using filepath.WalkDir.
type FileScanner struct{}

// NewScanner creates a new FileScanner.
func NewScanner() *FileScanner {
	return &FileScanner{}
}

// Scan walks rootDir recursively and returns sorted file paths
// matching any of the given glob patterns while excluding paths that
// match any exclude pattern.
func (s *FileScanner) Scan(rootDir string, patterns []string, excludes []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Get path relative to rootDir for pattern matching
		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			for _, exc := range excludes {
				matched, _ := filepath.Match(exc, relPath)
				if matched {
					return filepath.SkipDir
				}
				if matchGlob(relPath, exc) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		for _, exc := range excludes {
			if matchGlob(relPath, exc) {
				return nil
			}
		}

		for _, pattern := range patterns {
			if matchGlob(relPath, pattern) {
				files = append(files, path)
				return nil
			}
		}

		return nil
	})

	if err != nil {
		return nil, domain.NewError("scan", rootDir, 0, "failed to scan extracted archive", err)
	}

	sort.Strings(files)
	return files, nil
}

// matchGlob matches a path against a glob pattern, supporting ** for
// recursive matching.
func matchGlob(path, pattern string) bool {
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], string(filepath.Separator))
		suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

		if prefix != "" {
			preParts := strings.Split(prefix, string(filepath.Separator))
			pathParts := strings.Split(path, string(filepath.Separator))
			if len(pathParts) < len(preParts) {
				return false
			}
			for i, pp := range preParts {
				if matched, _ := filepath.Match(pp, pathParts[i]); !matched {
					return false
				}
			}
			path = strings.Join(pathParts[len(preParts):], string(filepath.Separator))
		}

		if suffix == "" {
			return true
		}

		pathParts := strings.Split(path, string(filepath.Separator))
		for i := range pathParts {
			subPath := strings.Join(pathParts[i:], string(filepath.Separator))
			matched, _ := filepath.Match(suffix, subPath)
			if matched {
				return true
			}
		}
		return false
	}

	matched, _ := filepath.Match(pattern, filepath.Base(path))
	if matched {
		return true
	}
	matched, _ = filepath.Match(pattern, path)
	return matched
}
