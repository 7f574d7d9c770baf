// Package importer discovers content workbooks, persists parsed packages and
// drives whole import runs.
package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Category is a content subdirectory under the content root.
type Category string

const (
	CategorySubjects      Category = "subjects"
	CategoryPastQuestions Category = "past-questions"
	CategoryModules       Category = "modules"
)

// Categories lists the scanned directories in scan order.
var Categories = []Category{CategorySubjects, CategoryPastQuestions, CategoryModules}

// ErrUnknownCategory is returned for a category outside Categories.
var ErrUnknownCategory = errors.New("unknown content category")

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

var workbookExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// ContentFile is a discovered workbook.
type ContentFile struct {
	Path     string
	Name     string
	Category Category
}

// Scanner finds workbooks under a content root.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at root.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Root returns the content root directory.
func (s *Scanner) Root() string { return s.root }

// ScanAll scans every category in order. Missing or unreadable directories
// are skipped.
func (s *Scanner) ScanAll() ([]ContentFile, error) {
	var files []ContentFile
	for _, c := range Categories {
		found, err := s.ScanCategory(c)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// ScanCategory lists the workbooks of one category in directory order.
// Lock files (leading "~") and hidden files are ignored.
func (s *Scanner) ScanCategory(c Category) ([]ContentFile, error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, string(c))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("content directory not found", "path", dir)
		} else {
			slog.Warn("content directory unreadable, skipping", "path", dir, "error", err)
		}
		return nil, nil
	}

	var files []ContentFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~") || strings.HasPrefix(name, ".") {
			continue
		}
		if !workbookExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, ContentFile{
			Path:     filepath.Join(dir, name),
			Name:     name,
			Category: c,
		})
	}
	return files, nil
}
