package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Search discovers form PDFs under a directory.
type Search struct {
	validator *Validator
}

// NewSearch creates a search handler that skips files over maxFileSize bytes.
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
	}
}

// FindPDFs walks directory and returns the PDFs whose names match query, up to limit
// (0 for no limit). Hidden directories and files that fail the quick validation are skipped.
func (s *Search) FindPDFs(directory, query string, limit int) ([]FileInfo, error) {
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
	guard, err := NewPathGuard(absDirectory)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	var files []FileInfo
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // keep walking past unreadable entries
		}
		if within, err := guard.Contains(path); err != nil || !within {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}
		if !IsPDFName(d.Name()) || !matchesQuery(d.Name(), query) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished during the walk
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // skip invalid files
		}
		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return files, nil
}

// matchesQuery matches a lowercased query against a file name by substring, or by
// every query word appearing inside some word of the name.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(name)
	for _, q := range splitIntoWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(" _-.()[]", r)
	})
}
