package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks that a path names a readable PDF within size limits.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks path and reports the outcome. A failed check is a result, not an error.
func (v *Validator) ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{Path: path}

	pages, err := v.open(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Valid = true
	result.Pages = pages
	return result
}

// Check validates path and opens it once to confirm it parses.
func (v *Validator) Check(path string) error {
	_, err := v.open(path)
	return err
}

func (v *Validator) open(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return 0, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return r.NumPage(), nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !IsPDFName(path) {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// IsPDFName reports whether name carries a .pdf extension.
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
